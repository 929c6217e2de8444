package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the review scoring service.
type Config struct {
	ListenAddr     string
	LogLevel       string
	RulesFile      string
	BatchWorkers   int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		LogLevel:       "info",
		BatchWorkers:   8,
		RequestTimeout: 10 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
}

// FromEnv creates a configuration instance sourced from environment variables.
// A .env file in the working directory is loaded first when present.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	def := Default()
	cfg := Config{
		ListenAddr:     getEnv("REVIEW_LISTEN_ADDR", def.ListenAddr),
		LogLevel:       getEnv("REVIEW_LOG_LEVEL", def.LogLevel),
		RulesFile:      getEnv("REVIEW_RULES_FILE", ""),
		BatchWorkers:   def.BatchWorkers,
		RequestTimeout: def.RequestTimeout,
		MaxBodyBytes:   def.MaxBodyBytes,
	}

	if workers := os.Getenv("REVIEW_BATCH_WORKERS"); workers != "" {
		if _, err := fmt.Sscanf(workers, "%d", &cfg.BatchWorkers); err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_BATCH_WORKERS: %w", err)
		}
	}

	if timeout := os.Getenv("REVIEW_REQUEST_TIMEOUT_S"); timeout != "" {
		var seconds int
		if _, err := fmt.Sscanf(timeout, "%d", &seconds); err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_REQUEST_TIMEOUT_S: %w", err)
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	if limit := os.Getenv("REVIEW_MAX_BODY_BYTES"); limit != "" {
		if _, err := fmt.Sscanf(limit, "%d", &cfg.MaxBodyBytes); err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_MAX_BODY_BYTES: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("config: listen address must not be empty")
	case c.BatchWorkers < 1:
		return fmt.Errorf("config: batch workers must be at least 1, got %d", c.BatchWorkers)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("config: request timeout must be positive, got %s", c.RequestTimeout)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("config: max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
