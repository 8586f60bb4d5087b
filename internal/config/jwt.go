package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// JWT defaults
const (
	DefaultJWTIssuer = "cv-job-matcher"
	DefaultJWTTTL    = 24 * time.Hour
	MinJWTSecretLen  = 16
)

// JWTConfig holds the HS256 signing settings for API client tokens
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Validate checks the secret and token lifetime
func (c *JWTConfig) Validate() error {
	if len(c.Secret) < MinJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", MinJWTSecretLen, len(c.Secret))
	}
	if c.TTL < time.Minute {
		return fmt.Errorf("token lifetime must be at least 1m, got %s", c.TTL)
	}
	if c.Issuer == "" {
		return fmt.Errorf("JWT issuer cannot be empty")
	}
	return nil
}

// JWTFromEnv reads JWT_SECRET (required), JWT_TTL as a duration such as
// "36h", JWT_EXPIRATION_HOURS as whole hours when JWT_TTL is unset, and
// JWT_ISSUER.
func JWTFromEnv(lookup func(string) (string, bool)) (*JWTConfig, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	secret := get("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	cfg := &JWTConfig{Secret: secret, TTL: DefaultJWTTTL, Issuer: DefaultJWTIssuer}

	if v := get("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
		}
		cfg.TTL = d
	} else if v := get("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %w", err)
		}
		cfg.TTL = time.Duration(hours) * time.Hour
	}
	if v := get("JWT_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewJWTConfig loads the JWT configuration from the process environment
func NewJWTConfig() (*JWTConfig, error) {
	return JWTFromEnv(os.LookupEnv)
}

// OptionalJWTConfig is NewJWTConfig for services that run without auth
// when JWT_SECRET is unset; it then returns nil and no error.
func OptionalJWTConfig() (*JWTConfig, error) {
	if strings.TrimSpace(os.Getenv("JWT_SECRET")) == "" {
		return nil, nil
	}
	return NewJWTConfig()
}
