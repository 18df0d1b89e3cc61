// Package config builds the process configuration once at start-up:
// defaults, then an optional YAML file named by CONFIG_FILE, then
// environment variables. Handlers receive the resulting *Config and never
// read the environment themselves.
package config

import (
	"fmt"
	"os"

	apperrors "github.com/robodex/robodex-backend/internal/errors"
	"gopkg.in/yaml.v3"
)

const configFileEnvVar = "CONFIG_FILE"

type Config struct {
	Env      EnvVars  `yaml:"env"`
	Cors     Cors     `yaml:"cors"`
	Gateway  Gateway  `yaml:"gateway"`
	CodeHost CodeHost `yaml:"codehost"`
	Security Security `yaml:"security"`
	Cache    Cache    `yaml:"cache"`
}

// Defaults returns a configuration with every optional value populated.
// Secrets and the gateway location have no defaults.
func Defaults() *Config {
	return &Config{
		Env:      defaultEnvVars(),
		Cors:     defaultCors(),
		Gateway:  defaultGateway(),
		CodeHost: defaultCodeHost(),
		Security: defaultSecurity(),
		Cache:    defaultCache(),
	}
}

// Load assembles the configuration and validates it.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := os.Getenv(configFileEnvVar); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the values present in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("[config LoadFile] read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("[config LoadFile] parse %s: %w", path, err)
	}
	return nil
}

// LoadEnv overlays every environment variable that is set.
func (c *Config) LoadEnv() error {
	loaders := []func() error{
		c.Env.loadEnv,
		c.Cors.loadEnv,
		c.Gateway.loadEnv,
		c.CodeHost.loadEnv,
		c.Security.loadEnv,
		c.Cache.loadEnv,
	}
	for _, load := range loaders {
		if err := load(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{gatewayURLEnvVar, c.Gateway.URL},
		{serviceKeyEnvVar, c.Gateway.ServiceKey},
		{jwtSecretEnvVar, c.Security.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.Wrapf(apperrors.ErrMissingConfigValue, "%s", r.name)
		}
	}
	if c.Security.TokenTTL <= 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidConfigValue, "%s must be positive", tokenTTLEnvVar)
	}
	switch c.Cache.Kind {
	case CacheDisabled, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return apperrors.Wrapf(apperrors.ErrMissingConfigValue, "%s", redisURLEnvVar)
		}
	default:
		return apperrors.Wrapf(apperrors.ErrUnsupportedCacheKind, "%q", c.Cache.Kind)
	}
	return nil
}
