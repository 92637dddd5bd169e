// Package config loads and validates application configuration from the
// environment, with optional .env support for local development.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// JWTSecret signs bearer tokens for registered accounts.
	JWTSecret string `env:"JWT_SECRET"`
	// AdminAPIKey guards automation endpoints (popularity, cleanup).
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// PopularityThreshold is the mention count at which a bill is flagged
	// popular by the scheduled popularity job.
	PopularityThreshold int `env:"POPULARITY_THRESHOLD" default:"3"`

	// StatsCacheTTL bounds staleness of cached bill-level vote stats.
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" default:"15s"`

	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" default:"720h"` // 30 days
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":  cfg.DatabaseURL,
		"REDIS_URL":     cfg.RedisURL,
		"JWT_SECRET":    cfg.JWTSecret,
		"ADMIN_API_KEY": cfg.AdminAPIKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	if cfg.PopularityThreshold < 1 {
		return fmt.Errorf("POPULARITY_THRESHOLD must be at least 1, got %d", cfg.PopularityThreshold)
	}

	return nil
}
