package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	AppEnv           string
	LogsLimit        int // default row cap for /logs and /api/v1/visits
	TrustedProxyHops int // 0 keeps the first X-Forwarded-For entry policy
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "file:visitors.db"),
		AppEnv:           getEnv("APP_ENV", "local"),
		LogsLimit:        getEnvInt("LOGS_LIMIT", 1000),
		TrustedProxyHops: getEnvInt("TRUSTED_PROXY_HOPS", 0),
		ReadTimeout:      getEnvDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:     getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt falls back on a missing, malformed or negative value
func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
