package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables using `env` struct tags.
//
// Example:
//
//	type Config struct {
//	    RedisAddr          string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
//	    CheckoutTTLMinutes int    `env:"CHECKOUT_TTL_MINUTES" envDefault:"60"`
//	}
//
// Validation of the loaded values is the caller's concern; Load only fails
// when a variable cannot be parsed into its field type.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
