// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// ErrInvalidUpstreamURL is returned when an upstream base URL is not an absolute http(s) URL.
var ErrInvalidUpstreamURL = errors.New("upstream URL must be an absolute http(s) URL")

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Upstream REST services
	UsersAPIURL     string        `env:"USERS_API_URL" envDefault:"https://jsonplaceholder.typicode.com"`
	ProductsAPIURL  string        `env:"PRODUCTS_API_URL" envDefault:"https://api.restful-api.dev"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`

	// Session token storage (Redis). Empty keeps tokens in process memory.
	RedisURL string `env:"REDIS_URL"`

	// Activity log (PostgreSQL). Empty disables persistence of activity events.
	DatabaseURL string `env:"DATABASE_URL"`

	// With both Redis and PostgreSQL configured, activity events are queued on
	// a Redis stream and written by a background worker.
	ActivityStream          bool `env:"ACTIVITY_STREAM" envDefault:"true"`
	ActivityStreamBatchSize int  `env:"ACTIVITY_STREAM_BATCH_SIZE" envDefault:"100"`

	// Optional argon2id PHC hash that every login password must match.
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// Per-IP login attempts, enforced only when REDIS_URL is set. Zero disables.
	LoginRateLimitPerMinute int `env:"LOGIN_RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	LoginRateLimitBurst     int `env:"LOGIN_RATE_LIMIT_BURST" envDefault:"5"`

	// In-memory sessions idle longer than this are dropped.
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"24h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. Writes cover a full upstream round trip.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"USERS_API_URL":    c.UsersAPIURL,
		"PRODUCTS_API_URL": c.ProductsAPIURL,
	} {
		if err := validateUpstreamURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.UpstreamTimeout < 0 {
		return errors.New("UPSTREAM_TIMEOUT must not be negative")
	}
	if c.ActivityStreamBatchSize < 0 {
		return errors.New("ACTIVITY_STREAM_BATCH_SIZE must not be negative")
	}
	if c.LoginRateLimitPerMinute < 0 {
		return errors.New("LOGIN_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.LoginRateLimitPerMinute > 0 && c.LoginRateLimitBurst < 1 {
		return errors.New("LOGIN_RATE_LIMIT_BURST must be at least 1")
	}
	return nil
}

func validateUpstreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidUpstreamURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidUpstreamURL
	}
	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
