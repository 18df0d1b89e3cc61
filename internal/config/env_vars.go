package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/robodex/robodex-backend/internal/errors"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"

	EnvDev  = "DEV"
	EnvProd = "PROD"
)

type EnvVars struct {
	Port     string `yaml:"port"`
	AppName  string `yaml:"app_name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

func defaultEnvVars() EnvVars {
	return EnvVars{
		Port:     "8080",
		AppName:  "Robodex",
		Env:      EnvDev,
		LogLevel: "info",
	}
}

func (e *EnvVars) loadEnv() error {
	e.Port = GetEnv(portEnvVar, e.Port)
	e.AppName = GetEnv(appNameVar, e.AppName)
	e.Env = strings.ToUpper(GetEnv(envEnvVar, e.Env))
	e.LogLevel = strings.ToLower(GetEnv(logLevelEnvVar, e.LogLevel))
	return nil
}

// Addr returns the listen address, e.g. ":8080".
func (e EnvVars) Addr() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return fmt.Sprintf(":%s", e.Port)
}

func (e EnvVars) IsDev() bool {
	return e.Env == EnvDev
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func durationFromEnv(envVar string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidConfigValue, "%s=%q", envVar, value)
	}
	return d, nil
}

func boolFromEnv(envVar string, defaultValue bool) (bool, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, apperrors.Wrapf(apperrors.ErrInvalidConfigValue, "%s=%q", envVar, value)
	}
	return b, nil
}

func intFromEnv(envVar string, defaultValue int) (int, error) {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidConfigValue, "%s=%q", envVar, value)
	}
	return i, nil
}

// parseCSV splits a comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
