package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modmanager/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	assert.Nil(t, FromConfig(cfg), "google without a key is disabled")

	cfg.Translation.APIKey = "k"
	b := FromConfig(cfg)
	require.NotNil(t, b)
	assert.Equal(t, "google", b.Name())

	cfg.Translation.Provider = "ollama"
	cfg.Translation.Model = "llama3"
	b = FromConfig(cfg)
	require.NotNil(t, b)
	assert.Equal(t, "ollama", b.Name())

	cfg.Translation.Provider = "openrouter"
	cfg.Translation.APIKey = ""
	assert.Nil(t, FromConfig(cfg))
}
