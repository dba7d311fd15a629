package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv       string
	Port         string
	LogLevel     string
	LogFormat    string
	UpstreamURL  string // salon API, the system of record
	OriginURL    string // static origin serving the application shell
	RedisURL     string // empty selects the in-memory bucket store
	CacheVersion string // version token embedded in bucket names
	APIPrefix    string
	RateLimitRPS float64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		UpstreamURL:  getEnv("UPSTREAM_API_URL", ""),
		OriginURL:    getEnv("ORIGIN_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
		CacheVersion: getEnv("CACHE_VERSION", ""),
		APIPrefix:    getEnv("API_PREFIX", "/api/"),
	}

	if cfg.UpstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_API_URL is required")
	}
	if _, err := url.Parse(cfg.UpstreamURL); err != nil {
		return nil, fmt.Errorf("UPSTREAM_API_URL must be a valid URL: %w", err)
	}
	if cfg.OriginURL == "" {
		return nil, fmt.Errorf("ORIGIN_URL is required")
	}
	if _, err := url.Parse(cfg.OriginURL); err != nil {
		return nil, fmt.Errorf("ORIGIN_URL must be a valid URL: %w", err)
	}
	if cfg.CacheVersion == "" {
		return nil, fmt.Errorf("CACHE_VERSION is required")
	}

	rps := getEnv("RATE_LIMIT_RPS", "20")
	parsed, err := strconv.ParseFloat(rps, 64)
	if err != nil || parsed <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be a positive number, got %q", rps)
	}
	cfg.RateLimitRPS = parsed

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
