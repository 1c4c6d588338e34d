// Package config loads application configuration from environment variables
// with hard-coded fallbacks, mirroring how the service is deployed: flags
// and files are not used, only the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Database configuration
	DBDriver string // "sqlite3" or "postgres"
	DBDSN    string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging
	LogLevel string

	// Cache configuration
	CacheKey             string // well-known key holding the review collection
	CacheRefreshInterval time.Duration
	CacheSlidingTTL      time.Duration
	CacheAbsoluteTTL     time.Duration
	QueryCacheCapacity   int
	QueryCacheTTL        time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		DBDriver: getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:    getEnv("DB_DSN", "file:product_reviews.db?cache=shared&_fk=1"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "product-reviews"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		CacheKey:             getEnv("CACHE_KEY", "ProductReviews"),
		CacheRefreshInterval: getEnvDuration("CACHE_REFRESH_INTERVAL", time.Minute),
		CacheSlidingTTL:      getEnvDuration("CACHE_SLIDING_TTL", 10*time.Minute),
		CacheAbsoluteTTL:     getEnvDuration("CACHE_ABSOLUTE_TTL", 20*time.Minute),
		QueryCacheCapacity:   getEnvInt("QUERY_CACHE_CAPACITY", 1024),
		QueryCacheTTL:        getEnvDuration("QUERY_CACHE_TTL", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present.
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.DBDriver == "sqlite3" {
			return fmt.Errorf("DB_DRIVER must be postgres in production")
		}
	}
	if c.DBDriver != "sqlite3" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.CacheKey == "" {
		return fmt.Errorf("CACHE_KEY cannot be empty")
	}
	if c.CacheRefreshInterval <= 0 {
		return fmt.Errorf("CACHE_REFRESH_INTERVAL must be positive")
	}
	return nil
}

// IsProduction returns true in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
