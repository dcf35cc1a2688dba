package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("expected default AppEnv 'development', got %s", cfg.AppEnv)
	}

	if cfg.AppPort != 8080 {
		t.Errorf("expected default AppPort 8080, got %d", cfg.AppPort)
	}

	if cfg.UsersAPIURL != "https://jsonplaceholder.typicode.com" {
		t.Errorf("unexpected default UsersAPIURL %s", cfg.UsersAPIURL)
	}

	if cfg.ProductsAPIURL != "https://api.restful-api.dev" {
		t.Errorf("unexpected default ProductsAPIURL %s", cfg.ProductsAPIURL)
	}

	if cfg.UpstreamTimeout != 15*time.Second {
		t.Errorf("expected default UpstreamTimeout 15s, got %v", cfg.UpstreamTimeout)
	}

	if cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Errorf("expected optional backends to be empty, got redis=%q db=%q", cfg.RedisURL, cfg.DatabaseURL)
	}

	if cfg.LogFormat != "json" {
		t.Errorf("expected default LogFormat 'json', got %s", cfg.LogFormat)
	}

	if !cfg.ActivityStream || cfg.ActivityStreamBatchSize != 100 {
		t.Errorf("unexpected activity stream defaults: enabled=%v batch=%d", cfg.ActivityStream, cfg.ActivityStreamBatchSize)
	}

	if cfg.LoginRateLimitPerMinute != 10 || cfg.LoginRateLimitBurst != 5 {
		t.Errorf("unexpected login rate limit defaults: per_minute=%d burst=%d", cfg.LoginRateLimitPerMinute, cfg.LoginRateLimitBurst)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("USERS_API_URL", "http://localhost:9001")
	t.Setenv("PRODUCTS_API_URL", "http://localhost:9002")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("UPSTREAM_TIMEOUT", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.UsersAPIURL != "http://localhost:9001" {
		t.Errorf("expected UsersAPIURL override, got %s", cfg.UsersAPIURL)
	}

	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("expected RedisURL to be set, got %s", cfg.RedisURL)
	}

	if cfg.UpstreamTimeout != 0 {
		t.Errorf("expected UpstreamTimeout 0, got %v", cfg.UpstreamTimeout)
	}
}

func TestLoad_InvalidUpstreamURL(t *testing.T) {
	t.Setenv("PRODUCTS_API_URL", "api.restful-api.dev")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for relative products URL, got nil")
	}
	if !errors.Is(err, ErrInvalidUpstreamURL) {
		t.Errorf("expected ErrInvalidUpstreamURL, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "http://b.test:8080"}, false},
		{"ftp scheme", Config{UsersAPIURL: "ftp://a.test", ProductsAPIURL: "https://b.test"}, true},
		{"missing host", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "https://"}, true},
		{"negative timeout", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "https://b.test", UpstreamTimeout: -time.Second}, true},
		{"negative batch size", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "https://b.test", ActivityStreamBatchSize: -1}, true},
		{"negative login rate", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "https://b.test", LoginRateLimitPerMinute: -1}, true},
		{"login rate without burst", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "https://b.test", LoginRateLimitPerMinute: 10}, true},
		{"login rate with burst", Config{UsersAPIURL: "https://a.test", ProductsAPIURL: "https://b.test", LoginRateLimitPerMinute: 10, LoginRateLimitBurst: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return false")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to return true")
	}
}
