package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const defaultReferenceText = "The quick brown fox jumps over the lazy dog."

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"` // "nats" or "memory"
		NATS    struct {
			URL    string `yaml:"url"`
			Bucket string `yaml:"bucket"`
		} `yaml:"nats"`
	} `yaml:"store"`
	Race struct {
		ReferenceText    string `yaml:"reference_text"`
		CountdownSeconds int    `yaml:"countdown_seconds"`
	} `yaml:"race"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML config file, then lets environment variables
// override it. A missing file is not an error; defaults apply.
func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Run on defaults and environment alone.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Store.Backend == "" {
		config.Store.Backend = "nats"
	}
	if config.Store.NATS.URL == "" {
		config.Store.NATS.URL = "nats://localhost:4222"
	}
	if config.Store.NATS.Bucket == "" {
		config.Store.NATS.Bucket = "TYPERACE_ROOMS"
	}
	if config.Race.ReferenceText == "" {
		config.Race.ReferenceText = defaultReferenceText
	}
	if config.Race.CountdownSeconds <= 0 {
		config.Race.CountdownSeconds = 3
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Store.Backend = getEnv("STORE_BACKEND", config.Store.Backend)
	config.Store.NATS.URL = getEnv("NATS_URL", config.Store.NATS.URL)
	config.Store.NATS.Bucket = getEnv("NATS_BUCKET", config.Store.NATS.Bucket)
	config.Race.ReferenceText = getEnv("REFERENCE_TEXT", config.Race.ReferenceText)
	config.Race.CountdownSeconds = getEnvAsInt("COUNTDOWN_SECONDS", config.Race.CountdownSeconds)

	return &config, nil
}
