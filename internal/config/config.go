package config

import (
	"errors"
	"fmt"
	"time"

	"stride-core/internal/quota"
	"stride-core/internal/usage"
)

// Config holds everything the orchestration core needs at startup.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Cache     CacheConfig      `yaml:"cache"`
	Quota     QuotaConfig      `yaml:"quota"`
	Providers []ProviderConfig `yaml:"providers"`
	Usage     UsageConfig      `yaml:"usage"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CacheConfig struct {
	Backend         string        `yaml:"backend"` // "memory" or "redis"
	Prefix          string        `yaml:"prefix"`
	RedisAddr       string        `yaml:"redis_addr"`
	MaxEntries      int           `yaml:"max_entries"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type QuotaConfig struct {
	DailyFree int `yaml:"daily_free"`
	DailyPlus int `yaml:"daily_plus"`
	DailyPro  int `yaml:"daily_pro"` // <= 0 means unlimited
	PerMinute int `yaml:"per_minute"`
}

// Limits converts the config into the limiter's shape.
func (q QuotaConfig) Limits() quota.Limits {
	return quota.Limits{
		Daily: map[quota.Tier]int{
			quota.TierFree: q.DailyFree,
			quota.TierPlus: q.DailyPlus,
			quota.TierPro:  q.DailyPro,
		},
		PerMinute: q.PerMinute,
		Window:    time.Minute,
	}
}

// ProviderConfig describes one upstream endpoint, in priority order. The API
// key is read from the environment variable named by api_key_env so secrets
// stay out of config files.
type ProviderConfig struct {
	Name       string        `yaml:"name"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKeyEnv  string        `yaml:"api_key_env"`
	APIKey     string        `yaml:"-"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type UsageConfig struct {
	DBPath  string        `yaml:"db_path"`
	Pricing usage.Pricing `yaml:"pricing"`
}

// DefaultConfig returns the baseline configuration before file and env
// overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:         "memory",
			Prefix:          "stride",
			RedisAddr:       "127.0.0.1:6379",
			MaxEntries:      10000,
			CleanupInterval: 5 * time.Minute,
		},
		Quota: QuotaConfig{
			DailyFree: 10,
			DailyPlus: 100,
			DailyPro:  0,
			PerMinute: 6,
		},
		Providers: []ProviderConfig{
			{
				Name:      "openai",
				BaseURL:   "https://api.openai.com",
				Model:     "gpt-4o-mini",
				APIKeyEnv: "OPENAI_API_KEY",
				Timeout:   60 * time.Second,
			},
			{
				Name:      "openrouter",
				BaseURL:   "https://openrouter.ai/api",
				Model:     "meta-llama/llama-3.1-70b-instruct",
				APIKeyEnv: "OPENROUTER_API_KEY",
				Timeout:   60 * time.Second,
			},
		},
		Usage: UsageConfig{
			DBPath:  "stride-usage.db",
			Pricing: usage.DefaultPricing(),
		},
	}
}

// Validate checks the pieces main() cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if len(c.Providers) == 0 {
		return errors.New("at least one provider is required")
	}
	for i, p := range c.Providers {
		if p.Name == "" || p.BaseURL == "" || p.Model == "" {
			return fmt.Errorf("providers[%d]: name, base_url and model are required", i)
		}
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Usage.DBPath == "" {
		return errors.New("usage.db_path is required")
	}
	return nil
}
