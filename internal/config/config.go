// Package config reads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Forecast ForecastConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr string
}

// DatabaseConfig holds PostgreSQL and ClickHouse configuration.
type DatabaseConfig struct {
	PostgresDSN   string
	ClickhouseDSN string
}

// RedisConfig holds the optional shared forecast cache configuration.
// An empty Addr selects the in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ForecastConfig holds the forecast path configuration.
type ForecastConfig struct {
	// ScorerKind selects "model" or "statistical".
	ScorerKind string

	// InferenceURL is the trained-model service base URL.
	InferenceURL string

	// FeatureSpecSource is a file path or URL for the feature layout.
	// Empty uses the built-in layout.
	FeatureSpecSource string

	// CacheTTL bounds how long completed forecasts are served from cache.
	CacheTTL time.Duration

	// LookbackDays restricts how much history is loaded. 0 loads all.
	LookbackDays int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresDSN:   getEnv("POSTGRES_DSN", ""),
			ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Forecast: ForecastConfig{
			ScorerKind:        getEnv("SCORER_KIND", "statistical"),
			InferenceURL:      getEnv("INFERENCE_URL", ""),
			FeatureSpecSource: getEnv("FEATURE_SPEC", ""),
			CacheTTL:          getEnvDuration("FORECAST_CACHE_TTL", 15*time.Minute),
			LookbackDays:      getEnvInt("FORECAST_LOOKBACK_DAYS", 0),
		},
	}
}

// LoadEnvFile loads environment variables from a .env file if it
// exists. Existing variables are never overridden.
func LoadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
