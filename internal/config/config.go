package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	PORT    string
	APP_ENV string

	// STORE selects the persistence backend: "postgres" or "memory"
	STORE string

	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	// NOTIFIER selects the real-time transport: "redis", "postgres" or "none"
	NOTIFIER       string
	REDIS_HOST     string
	REDIS_PORT     string
	REDIS_USERNAME string
	REDIS_PASSWORD string
	REDIS_DB       int

	SESSION_INACTIVITY_TIMEOUT_MINUTES int
	SESSION_REMEMBER_ME_DAYS           int
	ACTIVITY_TOUCH_INTERVAL_MINUTES    int

	DEFAULT_MAX_CAPACITY int

	ALLOWED_HEADERS     string
	SEED_ADMIN_PASSWORD string

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
}

func ReadConfig() *Config {
	return &Config{
		PORT:    getEnvOrDefault("PORT", "6060"),
		APP_ENV: getEnvOrDefault("APP_ENV", "development"),

		STORE: getEnvOrDefault("STORE", "postgres"),

		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		NOTIFIER:       getEnvOrDefault("NOTIFIER", "redis"),
		REDIS_HOST:     getEnvOrDefault("REDIS_HOST", "localhost"),
		REDIS_PORT:     getEnvOrDefault("REDIS_PORT", "6379"),
		REDIS_USERNAME: os.Getenv("REDIS_USERNAME"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       getIntEnvOrDefault("REDIS_DB", 0),

		SESSION_INACTIVITY_TIMEOUT_MINUTES: getIntEnvOrDefault("SESSION_INACTIVITY_TIMEOUT_MINUTES", 30),
		SESSION_REMEMBER_ME_DAYS:           getIntEnvOrDefault("SESSION_REMEMBER_ME_DAYS", 7),
		ACTIVITY_TOUCH_INTERVAL_MINUTES:    getIntEnvOrDefault("ACTIVITY_TOUCH_INTERVAL_MINUTES", 30),

		DEFAULT_MAX_CAPACITY: getIntEnvOrDefault("DEFAULT_MAX_CAPACITY", 8),

		ALLOWED_HEADERS:     getEnvOrDefault("ALLOWED_HEADERS", "Content-Type,Authorization"),
		SEED_ADMIN_PASSWORD: getEnvOrDefault("SEED_ADMIN_PASSWORD", "admin"),

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// IsProduction reports whether cookies must be marked secure.
func (c *Config) IsProduction() bool {
	return c.APP_ENV == "production"
}

func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.SESSION_INACTIVITY_TIMEOUT_MINUTES) * time.Minute
}

func (c *Config) RememberMeTimeout() time.Duration {
	return time.Duration(c.SESSION_REMEMBER_ME_DAYS) * 24 * time.Hour
}

func (c *Config) ActivityTouchInterval() time.Duration {
	return time.Duration(c.ACTIVITY_TOUCH_INTERVAL_MINUTES) * time.Minute
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultValue
}
