package auth

import (
	"fmt"
	"time"
)

// Config holds token verification configuration.
type Config struct {
	// Secret is the HMAC signing key shared with the token issuer.
	Secret string `yaml:"secret" mapstructure:"secret" validate:"required,min=16"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// TokenTTL is the lifetime applied to minted tokens.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("auth.secret must be at least 16 characters")
	}
	return nil
}
