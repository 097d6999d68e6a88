package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// EndpointConfig is the rate limit rule for one endpoint. A Path ending in
// "/" matches by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds limiter configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Endpoints       []EndpointConfig
}

// DefaultConfig returns the production limits: 200 requests per hour by
// default, 10 grading runs per hour per client.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    200,
		DefaultWindow:   time.Hour,
		CleanupInterval: 5 * time.Minute,
		Endpoints: []EndpointConfig{
			{Path: "/api/grade", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		},
	}
}

// LoadConfig builds a Config from environment variables, falling back to the
// defaults.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	return cfg
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
