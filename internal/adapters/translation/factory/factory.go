package factory

import (
	"modmanager/internal/adapters/translation/google"
	"modmanager/internal/adapters/translation/llm"
	"modmanager/internal/config"
	"modmanager/internal/ports"
)

// FromConfig returns the configured backend, or nil when translation is
// not configured.
func FromConfig(cfg *config.Config) ports.TranslationBackend {
	if !cfg.TranslationEnabled() {
		return nil
	}
	t := cfg.Translation
	switch t.Provider {
	case llm.ProviderOpenRouter, llm.ProviderOllama:
		return llm.New(t.Provider, t.APIKey, t.Endpoint, t.Model, t.Timeout)
	default:
		return google.New(t.APIKey, t.Endpoint, t.Timeout)
	}
}
