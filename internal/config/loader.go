package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration in priority order: defaults, then the first
// config.yaml found on the search path, then environment variables.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	configPaths := []string{
		"configs/config.yaml",
		"config.yaml",
		"/etc/stride/config.yaml",
	}
	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		break
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromEnv applies environment overrides and resolves provider API keys.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("USAGE_DB_PATH"); v != "" {
		cfg.Usage.DBPath = v
	}

	for i := range cfg.Providers {
		if env := cfg.Providers[i].APIKeyEnv; env != "" {
			cfg.Providers[i].APIKey = os.Getenv(env)
		}
	}
}
