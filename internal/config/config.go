package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port         string
	DatabaseDSN  string
	JWTSecret    string
	UploadDir    string
	PublicURL    string
	ResendAPIKey string
	EmailFrom    string
	LogLevel     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "3000"),
		DatabaseDSN:  os.Getenv("DATABASE_DSN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		PublicURL:    getEnv("PUBLIC_URL", "http://localhost:3000"),
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnv("EMAIL_FROM", "Lorekeep <noreply@lorekeep.app>"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN environment variable is not set")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
