package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"backend"`
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
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

func loadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Environment variables override the file
	config.Backend.BaseURL = getEnv("BACKEND_BASE_URL", config.Backend.BaseURL)
	config.Backend.TimeoutSeconds = getEnvAsInt("BACKEND_TIMEOUT_SECONDS", config.Backend.TimeoutSeconds)
	config.Server.Port = getEnv("PORT", config.Server.Port)

	if config.Backend.BaseURL == "" {
		config.Backend.BaseURL = "http://localhost:8000/api/v1"
	}
	if config.Backend.TimeoutSeconds <= 0 {
		config.Backend.TimeoutSeconds = 30
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	return &config, nil
}

func (c *Config) backendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}
