package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	MongoURI    string
	RedisURL    string // optional, "" disables event publishing
	Environment string

	// Remote collaborators
	UserServiceURL  string
	GenAIServiceURL string

	// JWT secret for the gateway auth boundary; empty disables auth in dev
	JWTSecret string

	// Journal timezone: every (userId, date) key derivation and the
	// statistics week/streak math run in this location, never in implicit
	// machine-local time.
	Timezone string

	// Nightly insights job cron expression (standard 5-field)
	InsightsCron string

	// Statistics cache TTL
	StatsCacheTTL time.Duration

	// Outbound requests/second against the user service
	UserSyncRate float64
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8081"),
		MongoURI:    getEnv("MONGODB_URI", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		Environment: getEnv("ENVIRONMENT", "development"),

		UserServiceURL:  getEnv("USER_SERVICE_URL", "http://localhost:8080"),
		GenAIServiceURL: getEnv("GENAI_SERVICE_URL", "http://localhost:8082"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		Timezone:     getEnv("JOURNAL_TIMEZONE", "UTC"),
		InsightsCron: getEnv("INSIGHTS_CRON", "0 3 * * *"),

		StatsCacheTTL: time.Duration(getIntEnv("STATS_CACHE_TTL_SECONDS", 120)) * time.Second,
		UserSyncRate:  getFloatEnv("USER_SYNC_RATE", 10),
	}
}

// Location resolves the configured journal timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid JOURNAL_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
