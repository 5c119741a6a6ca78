package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "gemma3:1b", cfg.Specialists.Intent.Model)
	assert.Equal(t, 0.0, cfg.Specialists.Intent.Temperature)
	assert.Equal(t, 0.2, cfg.Specialists.QueryEnhancement.Temperature)
	assert.Equal(t, "gemma3:12b", cfg.Specialists.SearchResponse.Model)
	assert.Equal(t, 4096, cfg.Specialists.SearchResponse.MaxTokens)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.True(t, cfg.SFC.Headless)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.BaseURL, cfg.LLM.BaseURL)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  base_url: http://ollama.internal:11434
specialists:
  intent:
    model: gemma3:4b
    temperature: 0.05
store:
  database_path: /tmp/hr.db
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://ollama.internal:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "gemma3:4b", cfg.Specialists.Intent.Model)
	assert.Equal(t, 0.05, cfg.Specialists.Intent.Temperature)
	assert.Equal(t, "/tmp/hr.db", cfg.Store.DatabasePath)

	// untouched sections keep their defaults
	assert.Equal(t, "gemma3:12b", cfg.Specialists.SearchResponse.Model)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.DatabasePath = "/var/lib/talentscout.db"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/talentscout.db", loaded.Store.DatabasePath)
	assert.Equal(t, cfg.Specialists.Intent.Model, loaded.Specialists.Intent.Model)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("OLLAMA_HOST moves both gateway and embeddings", func(t *testing.T) {
		t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "http://gpu-box:11434", cfg.LLM.BaseURL)
		assert.Equal(t, "http://gpu-box:11434", cfg.Embedding.OllamaEndpoint)
	})

	t.Run("GEMINI_API_KEY fills both key slots", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gem-key", cfg.LLM.APIKey)
		assert.Equal(t, "gem-key", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("TALENTSCOUT_DB overrides store path", func(t *testing.T) {
		t.Setenv("TALENTSCOUT_DB", "/srv/hr.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/srv/hr.db", cfg.Store.DatabasePath)
	})

	t.Run("empty env leaves config alone", func(t *testing.T) {
		t.Setenv("OLLAMA_HOST", "")
		t.Setenv("GEMINI_API_KEY", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
		assert.Empty(t, cfg.LLM.APIKey)
	})
}

func TestGenFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.BaseURL = "http://host:1234"

	gen := cfg.GenFor(cfg.Specialists.SearchResponse)
	assert.Equal(t, "gemma3:12b", gen.Model)
	assert.Equal(t, "http://host:1234", gen.BaseURL)
	assert.Equal(t, 4096, gen.MaxTokens)
	assert.Equal(t, 120*time.Second, gen.Timeout)

	gen = cfg.GenFor(ModelConfig{Model: "m", Timeout: "not a duration"})
	assert.Equal(t, 30*time.Second, gen.Timeout, "unparsable timeout falls back")
}

func TestSFCCheckerConfig(t *testing.T) {
	cfg := DefaultConfig()
	c := cfg.SFCCheckerConfig()
	assert.True(t, c.Headless)
	assert.Equal(t, 60*time.Second, c.Timeout)
}
