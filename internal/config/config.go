// Package config loads settings from defaults, an optional YAML file, a .env
// file and MODMANAGER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix       = "MODMANAGER_"
	DefaultFileName = "modmanager.yaml"
)

type Config struct {
	DatabasePath    string            `yaml:"database_path"`
	DefaultLanguage string            `yaml:"default_language"`
	Log             LogConfig         `yaml:"log"`
	Catalog         CatalogConfig     `yaml:"catalog"`
	Translation     TranslationConfig `yaml:"translation"`
	Cache           CacheConfig       `yaml:"cache"`
	Stats           StatsConfig       `yaml:"stats"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Backend string `yaml:"backend"`
}

type CatalogConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	AppID       int           `yaml:"app_id"`
	WorkshopDir string        `yaml:"workshop_dir"`
	BatchSize   int           `yaml:"batch_size"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TranslationConfig struct {
	Provider    string        `yaml:"provider"` // google, openrouter or ollama
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	PerSecond   int           `yaml:"per_second"`
	PerMinute   int           `yaml:"per_minute"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxRetries  int           `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	BatchLimit  int           `yaml:"batch_limit"`
	Timeout     time.Duration `yaml:"timeout"`
	// StaleAfterDays bounds how old a stored item translation may get
	// before a sync re-requests it. Independent of Cache.TTLDays.
	StaleAfterDays int `yaml:"stale_after_days"`
}

type CacheConfig struct {
	TTLDays       int           `yaml:"ttl_days"`
	MemoryTTL     time.Duration `yaml:"memory_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type StatsConfig struct {
	RecentWindow time.Duration `yaml:"recent_window"`
}

func Default() *Config {
	return &Config{
		DatabasePath:    "data/modmanager.db",
		DefaultLanguage: "en",
		Log:             LogConfig{Level: "info", Format: "text", Backend: "slog"},
		Catalog: CatalogConfig{
			Endpoint:  "https://api.steampowered.com",
			AppID:     3167020,
			BatchSize: 100,
			Timeout:   20 * time.Second,
		},
		Translation: TranslationConfig{
			Provider:       "google",
			PerSecond:      5,
			PerMinute:      100,
			MinInterval:    100 * time.Millisecond,
			MaxRetries:     3,
			BaseBackoff:    time.Second,
			BatchLimit:     50,
			Timeout:        30 * time.Second,
			StaleAfterDays: 7,
		},
		Cache: CacheConfig{
			TTLDays:       7,
			MemoryTTL:     time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Stats: StatsConfig{RecentWindow: 7 * 24 * time.Hour},
	}
}

// CacheTTL is the lifetime of a persisted translation cache entry.
func (c *Config) CacheTTL() time.Duration { return days(c.Cache.TTLDays) }

// StaleAfter is the age at which a stored item translation is redone.
func (c *Config) StaleAfter() time.Duration { return days(c.Translation.StaleAfterDays) }

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

// TranslationEnabled reports whether enough is configured to reach a
// translation backend. Ollama runs locally and needs no key.
func (c *Config) TranslationEnabled() bool {
	t := c.Translation
	switch t.Provider {
	case "ollama":
		return t.Model != ""
	case "openrouter":
		return t.APIKey != "" && t.Model != ""
	default:
		return t.APIKey != ""
	}
}

// Load builds the configuration. An empty path falls back to
// modmanager.yaml in the working directory when it exists.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv loads variables from a .env file without overriding ones
// already set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	c.DefaultLanguage = NormalizeLanguage(c.DefaultLanguage)
	c.Catalog.Endpoint = strings.TrimRight(c.Catalog.Endpoint, "/")
	c.Translation.Endpoint = strings.TrimRight(c.Translation.Endpoint, "/")
}
