package config

import (
	"os"
	"strconv"
)

const (
	defaultDatabaseURL = "processed_data.db"
	defaultDirectory   = "data"
	defaultBatchSize   = 1000
	defaultWorkerCount = 4
)

// Config is read once from the environment at process start and threaded
// through to the loader; nothing reads the environment after that.
type Config struct {
	DatabaseURL   string
	DirectoryPath string
	BatchSize     int
	WorkerCount   int
}

// Load builds the configuration from the environment, falling back to
// defaults for unset or invalid values.
func Load() Config {
	return Config{
		DatabaseURL:   getEnv("DATABASE_URL", defaultDatabaseURL),
		DirectoryPath: getEnv("DIRECTORY_PATH", defaultDirectory),
		BatchSize:     getEnvInt("BATCH_SIZE", defaultBatchSize),
		WorkerCount:   getEnvInt("WORKER_COUNT", defaultWorkerCount),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
