package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

type Config struct {
	ServerPort      string
	DatabaseURL     string
	OptimizerAPIURL string
	CheckInterval   time.Duration
	CheckTimeout    time.Duration
	CORSAllowOrigin string
}

func Load() *Config {
	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DatabaseURL:     requireEnv("DATABASE_URL"),
		OptimizerAPIURL: getEnv("OPTIMIZER_API_URL", "https://api.codeyogi.dev"),
		CheckInterval:   getDuration("CHECK_INTERVAL", 60*time.Second),
		CheckTimeout:    getDuration("CHECK_TIMEOUT", 30*time.Second),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration for env var, using default",
			"key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
