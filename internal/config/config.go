package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	APIBaseURL    string
	APITimeout    time.Duration
	SessionSecret string
	CookieSecure  bool
	DBUrl         string
	RateLimit     float64
	RateBurst     int
	CORSOrigins   []string
	LogLevel      string
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		APIBaseURL:    getEnv("API_BASE_URL", os.Getenv("VITE_API_BASE_URL")),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBUrl:         os.Getenv("DB_URL"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.APITimeout, err = time.ParseDuration(getEnv("API_TIMEOUT", "15s")); err != nil {
		return Config{}, fmt.Errorf("API_TIMEOUT: %w", err)
	}
	if cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "false")); err != nil {
		return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
	}
	if cfg.RateLimit, err = strconv.ParseFloat(getEnv("RATE_LIMIT", "10"), 64); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(getEnv("RATE_BURST", "20")); err != nil {
		return Config{}, fmt.Errorf("RATE_BURST: %w", err)
	}

	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("API_BASE_URL is required")
	}
	return cfg, nil
}

// Insecure reports settings that are tolerable in development only.
func (c Config) Insecure() []string {
	var warnings []string
	if len(c.SessionSecret) < 32 {
		warnings = append(warnings, "SESSION_SECRET shorter than 32 bytes, navigation cookies use a generated key")
	}
	if !c.CookieSecure {
		warnings = append(warnings, "COOKIE_SECURE is false, the token cookie is sent over plain HTTP")
	}
	return warnings
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
