// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to wire the service.
type Config struct {
	// HTTPAddr is the listen address, e.g. ":8080".
	HTTPAddr string
	// PostgresDSN selects the postgres store when set; the in-memory store
	// is used otherwise.
	PostgresDSN string
	// KafkaBrokers enables event publishing when non-empty.
	KafkaBrokers []string
	// LockWait bounds per-account lock acquisition.
	LockWait time.Duration
	// LogLevel and LogFormat configure the logger.
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		LockWait:    5 * time.Second,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if wait := os.Getenv("LEDGER_LOCK_WAIT"); wait != "" {
		d, err := time.ParseDuration(wait)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LEDGER_LOCK_WAIT %q: %w", wait, err)
		}
		cfg.LockWait = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
