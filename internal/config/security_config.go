package config

import "time"

const (
	jwtSecretEnvVar         = "JWT_SECRET"
	tokenTTLEnvVar          = "TOKEN_TTL"
	hashPasswordsEnvVar     = "HASH_PASSWORDS"
	minPasswordLengthEnvVar = "MIN_PASSWORD_LENGTH"
)

type Security struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	HashPasswords     bool          `yaml:"hash_passwords"`      // store changed passwords as bcrypt hashes
	MinPasswordLength int           `yaml:"min_password_length"` // applied on password change only
}

func defaultSecurity() Security {
	return Security{
		TokenTTL:          time.Hour,
		HashPasswords:     true,
		MinPasswordLength: 6,
	}
}

func (s *Security) loadEnv() error {
	var err error
	s.JWTSecret = GetEnv(jwtSecretEnvVar, s.JWTSecret)
	if s.TokenTTL, err = durationFromEnv(tokenTTLEnvVar, s.TokenTTL); err != nil {
		return err
	}
	if s.HashPasswords, err = boolFromEnv(hashPasswordsEnvVar, s.HashPasswords); err != nil {
		return err
	}
	if s.MinPasswordLength, err = intFromEnv(minPasswordLengthEnvVar, s.MinPasswordLength); err != nil {
		return err
	}
	return nil
}

// Secret returns the HMAC signing secret.
func (s Security) Secret() []byte {
	return []byte(s.JWTSecret)
}
