package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "https://api.openai.com/v1", config.Host)
	assert.Equal(t, "text-embedding-3-small", config.Model)
	assert.NoError(t, config.Validate())
}

func TestNewConfig(t *testing.T) {
	config := NewConfig(
		WithHost("http://localhost:11434"),
		WithModel("embeddinggemma"),
		WithAPIKey("secret"),
	)

	assert.Equal(t, "http://localhost:11434", config.Host)
	assert.Equal(t, "embeddinggemma", config.Model)
	assert.Equal(t, "secret", config.APIKey)
}

func TestConfigNormalize(t *testing.T) {
	t.Run("appends v1 suffix", func(t *testing.T) {
		config := &Config{Host: "http://localhost:11434", Model: "m"}
		config.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", config.Host)
	})

	t.Run("trailing slash handled", func(t *testing.T) {
		config := &Config{Host: "http://localhost:11434/", Model: "m"}
		config.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", config.Host)
	})

	t.Run("existing suffix preserved", func(t *testing.T) {
		config := &Config{Host: "http://localhost:11434/v1", Model: "m"}
		config.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", config.Host)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config normalizes host", func(t *testing.T) {
		config := &Config{Host: "http://localhost:11434", Model: "m"}
		require.NoError(t, config.Validate())
		assert.Equal(t, "http://localhost:11434/v1", config.Host)
	})

	t.Run("missing host", func(t *testing.T) {
		config := &Config{Model: "m"}
		assert.Error(t, config.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		config := &Config{Host: "http://localhost:11434"}
		assert.Error(t, config.Validate())
	})
}
