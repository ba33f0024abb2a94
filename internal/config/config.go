package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BaseURL        string        `env:"STOREFRONT_BASE_URL" envDefault:"http://localhost:8080/api/v1"`
	RequestTimeout time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"30s"`

	// MaxAddresses caps the stored addresses per account. Revisions of the
	// shop used both 2 and 3.
	MaxAddresses int `env:"STOREFRONT_MAX_ADDRESSES" envDefault:"2"`

	RedisAddr     string `env:"STOREFRONT_REDIS_ADDR"`
	RedisPassword string `env:"STOREFRONT_REDIS_PASSWORD"`
	RedisDB       int    `env:"STOREFRONT_REDIS_DB" envDefault:"0"`

	// Token seeds the session when no credential is persisted yet.
	Token string `env:"STOREFRONT_TOKEN"`

	PlaceholderURL string `env:"STOREFRONT_PLACEHOLDER_URL" envDefault:"/placeholder-payment.png"`
	LogLevel       string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`

	BreakerFailures uint32        `env:"STOREFRONT_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"STOREFRONT_BREAKER_COOLDOWN" envDefault:"30s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid STOREFRONT_BASE_URL %q", c.BaseURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("STOREFRONT_REQUEST_TIMEOUT must be positive")
	}
	if c.MaxAddresses < 1 {
		return errors.New("STOREFRONT_MAX_ADDRESSES must be at least 1")
	}
	if c.BreakerFailures == 0 {
		return errors.New("STOREFRONT_BREAKER_FAILURES must be at least 1")
	}
	return nil
}
