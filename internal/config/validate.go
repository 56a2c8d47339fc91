package config

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/text/language"
)

// Validate checks ranges and enumerations. Missing credentials are not an
// error: translation is then reported as disabled.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.DefaultLanguage, validation.Required, validation.By(languageCode)),
	); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Backend, validation.In("slog", "golog")),
	); err != nil {
		return fmt.Errorf("config log: %w", err)
	}
	cat := &c.Catalog
	if err := validation.ValidateStruct(cat,
		validation.Field(&cat.Endpoint, validation.Required, is.URL),
		validation.Field(&cat.AppID, validation.Required, validation.Min(1)),
		validation.Field(&cat.BatchSize, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&cat.Timeout, validation.Required),
	); err != nil {
		return fmt.Errorf("config catalog: %w", err)
	}
	tr := &c.Translation
	if err := validation.ValidateStruct(tr,
		validation.Field(&tr.Provider, validation.Required, validation.In("google", "openrouter", "ollama")),
		validation.Field(&tr.Endpoint, is.URL),
		validation.Field(&tr.PerSecond, validation.Required, validation.Min(1)),
		validation.Field(&tr.PerMinute, validation.Required, validation.Min(tr.PerSecond)),
		validation.Field(&tr.MinInterval, validation.Min(0)),
		validation.Field(&tr.MaxRetries, validation.Min(0)),
		validation.Field(&tr.BaseBackoff, validation.Required),
		validation.Field(&tr.BatchLimit, validation.Required, validation.Min(1)),
		validation.Field(&tr.Timeout, validation.Required),
		validation.Field(&tr.StaleAfterDays, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("config translation: %w", err)
	}
	ca := &c.Cache
	if err := validation.ValidateStruct(ca,
		validation.Field(&ca.TTLDays, validation.Required, validation.Min(1)),
		validation.Field(&ca.MemoryTTL, validation.Required),
		validation.Field(&ca.SweepInterval, validation.Required),
	); err != nil {
		return fmt.Errorf("config cache: %w", err)
	}
	return nil
}

func languageCode(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := language.Parse(s); err != nil {
		return errors.New("must be a BCP 47 language tag")
	}
	return nil
}

// NormalizeLanguage reduces a tag such as "zh-Hans-CN" or "EN_us" to its
// base language ("zh", "en"). Unparseable input is returned lowercased.
func NormalizeLanguage(s string) string {
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return strings.ToLower(s)
	}
	base, _ := tag.Base()
	return base.String()
}
