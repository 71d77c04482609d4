// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	Storage     StorageConfig
	Engine      EngineConfig
}

// StorageConfig holds the durable object-storage endpoint and credentials.
type StorageConfig struct {
	URL    string
	Key    string
	Bucket string
}

// EngineConfig holds generation engine settings.
type EngineConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/intake.db"),
		Storage: StorageConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			Key:    getEnv("SUPABASE_KEY", ""),
			Bucket: getEnv("SUPABASE_BUCKET", "transcripts"),
		},
		Engine: EngineConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-flash-latest"),
			Temperature: getEnvFloat("GEMINI_TEMPERATURE", 0.5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Storage.URL == "" {
		return fmt.Errorf("SUPABASE_URL must be set")
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("SUPABASE_KEY must be set")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("SUPABASE_BUCKET cannot be empty")
	}
	if c.Engine.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if c.Engine.Model == "" {
		return fmt.Errorf("GEMINI_MODEL cannot be empty")
	}
	if c.Engine.Temperature < 0 || c.Engine.Temperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE must be between 0 and 2")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
