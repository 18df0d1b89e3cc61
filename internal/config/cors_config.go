package config

import "strings"

const corsAllowedOriginsEnvVar = "CORS_ALLOWED_ORIGINS"

type Cors struct {
	AllowedOrigins AllowedOrigins `yaml:"allowed_origins"`
	AllowedMethods string         `yaml:"allowed_methods"`
	AllowedHeaders string         `yaml:"allowed_headers"`
}

type AllowedOrigins []string

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	for _, o := range a {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (a AllowedOrigins) IsWildcard() bool {
	return a.IsAllowedOrigin("*")
}

func (a AllowedOrigins) String() string {
	return strings.Join(a, ", ")
}

func defaultCors() Cors {
	return Cors{
		AllowedOrigins: AllowedOrigins{"*"},
		AllowedMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		AllowedHeaders: "Content-Type, Authorization",
	}
}

func (c *Cors) loadEnv() error {
	if origins := parseCSV(GetEnv(corsAllowedOriginsEnvVar, "")); len(origins) > 0 {
		c.AllowedOrigins = origins
	}
	return nil
}
