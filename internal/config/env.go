package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

type envBinding struct {
	name string
	set  func(string) error
}

func (c *Config) bindings() []envBinding {
	return []envBinding{
		{"DATABASE_PATH", str(&c.DatabasePath)},
		{"DEFAULT_LANGUAGE", str(&c.DefaultLanguage)},
		{"LOG_LEVEL", str(&c.Log.Level)},
		{"LOG_FORMAT", str(&c.Log.Format)},
		{"LOG_BACKEND", str(&c.Log.Backend)},
		{"CATALOG_ENDPOINT", str(&c.Catalog.Endpoint)},
		{"CATALOG_API_KEY", str(&c.Catalog.APIKey)},
		{"CATALOG_APP_ID", integer(&c.Catalog.AppID)},
		{"WORKSHOP_DIR", str(&c.Catalog.WorkshopDir)},
		{"CATALOG_BATCH_SIZE", integer(&c.Catalog.BatchSize)},
		{"CATALOG_TIMEOUT", duration(&c.Catalog.Timeout)},
		{"TRANSLATION_PROVIDER", str(&c.Translation.Provider)},
		{"TRANSLATION_ENDPOINT", str(&c.Translation.Endpoint)},
		{"TRANSLATION_API_KEY", str(&c.Translation.APIKey)},
		{"TRANSLATION_MODEL", str(&c.Translation.Model)},
		{"TRANSLATION_PER_SECOND", integer(&c.Translation.PerSecond)},
		{"TRANSLATION_PER_MINUTE", integer(&c.Translation.PerMinute)},
		{"TRANSLATION_MIN_INTERVAL", duration(&c.Translation.MinInterval)},
		{"TRANSLATION_MAX_RETRIES", integer(&c.Translation.MaxRetries)},
		{"TRANSLATION_BASE_BACKOFF", duration(&c.Translation.BaseBackoff)},
		{"TRANSLATION_BATCH_LIMIT", integer(&c.Translation.BatchLimit)},
		{"TRANSLATION_TIMEOUT", duration(&c.Translation.Timeout)},
		{"TRANSLATION_STALE_AFTER_DAYS", integer(&c.Translation.StaleAfterDays)},
		{"CACHE_TTL_DAYS", integer(&c.Cache.TTLDays)},
		{"CACHE_MEMORY_TTL", duration(&c.Cache.MemoryTTL)},
		{"CACHE_SWEEP_INTERVAL", duration(&c.Cache.SweepInterval)},
		{"STATS_RECENT_WINDOW", duration(&c.Stats.RecentWindow)},
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, b := range c.bindings() {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.set(v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err))
		}
	}
	return errors.Join(errs...)
}

func str(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func integer(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func duration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
