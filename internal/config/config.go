package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port string

	DatabaseURL string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	AdminEmail    string
	AdminPassword string

	StartingBalance float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: getEnv("JWT_SECRET", "tsf-bd24-secret-key-2024"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@tsf.com"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		StartingBalance: 1000,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
		}
		cfg.RedisDB = n
	}

	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseFloat(balance, 64); err == nil {
			cfg.StartingBalance = parsed
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
