// Package config loads runtime configuration from environment variables and
// an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the grader service.
type Config struct {
	AppEnv string
	Port   int

	APIKey string
	Model  string

	Workers        int
	MaxRetries     int
	RetryBaseDelay time.Duration
	AttemptTimeout time.Duration

	MaxFileBytes   int
	MaxZipEntries  int
	MaxUploadBytes int64
	MinRubricLen   int
	MaxRubricLen   int

	ResultsDir string
	ResultsTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads configuration from GRADER_-prefixed environment variables and
// an optional .env file. The Gemini key also resolves from the conventional
// GEMINI_API_KEY variable.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.env", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("model", "gemini-2.0-flash")
	v.SetDefault("workers", 4)
	v.SetDefault("max.retries", 2)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("attempt.timeout", "2m")
	v.SetDefault("max.file_mb", 50)
	v.SetDefault("max.zip_entries", 100)
	v.SetDefault("max.upload_mb", 100)
	v.SetDefault("rubric.min_len", 10)
	v.SetDefault("rubric.max_len", 50_000)
	v.SetDefault("results.dir", "results")
	v.SetDefault("results.ttl", "1h")

	_ = v.BindEnv("api.key", "GRADER_API_KEY", "GEMINI_API_KEY")

	baseDelay, err := time.ParseDuration(v.GetString("retry.base_delay"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid retry base delay: %w", err)
	}
	attemptTimeout, err := time.ParseDuration(v.GetString("attempt.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid attempt timeout: %w", err)
	}
	resultsTTL, err := time.ParseDuration(v.GetString("results.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid results ttl: %w", err)
	}

	cfg := Config{
		AppEnv:         v.GetString("app.env"),
		Port:           v.GetInt("port"),
		APIKey:         v.GetString("api.key"),
		Model:          v.GetString("model"),
		Workers:        v.GetInt("workers"),
		MaxRetries:     v.GetInt("max.retries"),
		RetryBaseDelay: baseDelay,
		AttemptTimeout: attemptTimeout,
		MaxFileBytes:   v.GetInt("max.file_mb") * 1024 * 1024,
		MaxZipEntries:  v.GetInt("max.zip_entries"),
		MaxUploadBytes: v.GetInt64("max.upload_mb") * 1024 * 1024,
		MinRubricLen:   v.GetInt("rubric.min_len"),
		MaxRubricLen:   v.GetInt("rubric.max_len"),
		ResultsDir:     v.GetString("results.dir"),
		ResultsTTL:     resultsTTL,
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return cfg, nil
}
