package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/solistore/checkout/pkg/config"
)

// Config holds all configuration for the checkout service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CHECKOUT_HTTP_PORT" envDefault:"8004"`

	// Redis (checkout session store)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Lifetime of a persisted checkout. A checkout untouched for longer
	// than this is discarded on next access.
	CheckoutTTLMinutes int `env:"CHECKOUT_TTL_MINUTES" envDefault:"60"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Service URLs for checkout step coordination
	AddressServiceURL  string `env:"ADDRESS_SERVICE_URL" envDefault:"http://localhost:8006"`
	ShippingServiceURL string `env:"SHIPPING_SERVICE_URL" envDefault:"http://localhost:8008"`
	OrderServiceURL    string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8003"`
	PaymentServiceURL  string `env:"PAYMENT_SERVICE_URL" envDefault:"http://localhost:8005"`
	CartServiceURL     string `env:"CART_SERVICE_URL" envDefault:"http://localhost:8002"`

	// JWT verification for the checkout area guard
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret"`
	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`

	// Circuit breaker settings for downstream service calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Per-step timeouts (seconds). Each coordination call gets its own
	// context.WithTimeout to prevent a slow downstream from blocking the
	// entire checkout indefinitely.
	ValidationTimeout int `env:"STEP_VALIDATION_TIMEOUT" envDefault:"5"`
	ShippingTimeout   int `env:"STEP_SHIPPING_TIMEOUT" envDefault:"5"`
	OrderTimeout      int `env:"STEP_ORDER_TIMEOUT" envDefault:"5"`
	PaymentTimeout    int `env:"STEP_PAYMENT_TIMEOUT" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.CheckoutTTLMinutes < 1 {
		return fmt.Errorf("CHECKOUT_TTL_MINUTES must be positive, got %d", c.CheckoutTTLMinutes)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	// Validate downstream service URLs for step coordination.
	for name, rawURL := range map[string]string{
		"ADDRESS_SERVICE_URL":  c.AddressServiceURL,
		"SHIPPING_SERVICE_URL": c.ShippingServiceURL,
		"ORDER_SERVICE_URL":    c.OrderServiceURL,
		"PAYMENT_SERVICE_URL":  c.PaymentServiceURL,
		"CART_SERVICE_URL":     c.CartServiceURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// CheckoutTTL returns the checkout lifetime as a duration.
func (c *Config) CheckoutTTL() time.Duration {
	return time.Duration(c.CheckoutTTLMinutes) * time.Minute
}
