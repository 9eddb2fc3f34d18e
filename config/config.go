// Package config provides environment-driven configuration for the bills API.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           int
	JWTSecret      string
	UploadDir      string
	PublicBaseURL  string
	AllowedOrigins []string
	LogLevel       string
	DevMode        bool
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        5678,
		JWTSecret:   os.Getenv("JWT_SECRET"),
		UploadDir:   envOr("UPLOAD_DIR", "data/uploads"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		DevMode:     os.Getenv("DEV_MODE") == "true",
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	cfg.PublicBaseURL = envOr("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
