// Package config reads server settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	StagesDir              string
	RemoteValidatorURL     string
	RemoteValidatorTimeout time.Duration
	LogLevel               string
	LogJSON                bool
	StrictInvariants       bool
	GinMode                string
}

func Load() Config {
	return Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("CORS_ALLOWED_ORIGIN", "*"),
		StagesDir:              getEnv("STAGES_DIR", "stages"),
		RemoteValidatorURL:     getEnv("REMOTE_VALIDATOR_URL", ""),
		RemoteValidatorTimeout: getDuration("REMOTE_VALIDATOR_TIMEOUT", 15*time.Second),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogJSON:                getEnv("LOG_FORMAT", "text") == "json",
		StrictInvariants:       getBool("STRICT_INVARIANTS", false),
		GinMode:                getEnv("GIN_MODE", "release"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
