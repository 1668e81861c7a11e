package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/serroba/shortlinks/internal/container"
)

type config struct {
	RedisAddr   string `env:"REDIS_ADDR"   envDefault:"localhost:6379"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogFormat   string `env:"LOG_FORMAT"   envDefault:"console"`
}

// loadOptions reads the consumer's settings from the environment and an optional .env file.
func loadOptions() (*container.Options, error) {
	_ = godotenv.Load() // Ignore error if .env not found

	cfg, err := env.ParseAs[config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return &container.Options{
		RedisAddr:   cfg.RedisAddr,
		DatabaseURL: cfg.DatabaseURL,
		LogFormat:   cfg.LogFormat,
	}, nil
}
