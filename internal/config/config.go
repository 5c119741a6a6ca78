// Package config holds the YAML configuration for the whole assistant:
// gateway endpoint, per-specialist model settings, embedding backend,
// candidate store, license automation and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"talentscout/internal/embedding"
	"talentscout/internal/gateway"
	"talentscout/internal/sfc"
)

// Config holds all talentscout configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM endpoint shared by all specialists
	LLM LLMConfig `yaml:"llm"`

	// Per-specialist model settings
	Specialists SpecialistsConfig `yaml:"specialists"`

	// Embedding backend
	Embedding embedding.Config `yaml:"embedding"`

	// Candidate store
	Store StoreConfig `yaml:"store"`

	// SFC license automation
	SFC SFCConfig `yaml:"sfc"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the generation endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ModelConfig is one specialist's generation settings.
type ModelConfig struct {
	Model       string   `yaml:"model"`
	Temperature float64  `yaml:"temperature"`
	TopK        int      `yaml:"top_k"`
	TopP        float64  `yaml:"top_p"`
	MaxTokens   int      `yaml:"max_tokens"`
	Stop        []string `yaml:"stop"`
	Timeout     string   `yaml:"timeout"`
}

// SpecialistsConfig carries one ModelConfig per specialist. Extraction
// specialists run a small model at low temperature; response specialists
// run a larger model with room for longer replies.
type SpecialistsConfig struct {
	Intent           ModelConfig `yaml:"intent"`
	NameExtraction   ModelConfig `yaml:"name_extraction"`
	QueryEnhancement ModelConfig `yaml:"query_enhancement"`
	FilterMatching   ModelConfig `yaml:"filter_matching"`
	SearchResponse   ModelConfig `yaml:"search_response"`
	InfoResponse     ModelConfig `yaml:"info_response"`
	GeneralResponse  ModelConfig `yaml:"general_response"`
	LicenseResponse  ModelConfig `yaml:"license_response"`
}

// StoreConfig configures the candidate database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SFCConfig configures the license-check automation.
type SFCConfig struct {
	Headless   bool   `yaml:"headless"`
	BrowserBin string `yaml:"browser_bin"`
	Timeout    string `yaml:"timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the local-first defaults.
func DefaultConfig() *Config {
	extraction := ModelConfig{
		Model:       "gemma3:1b",
		Temperature: 0.0,
		Timeout:     "30s",
	}
	response := ModelConfig{
		Model:       "gemma3:12b",
		Temperature: 0.3,
		MaxTokens:   4096,
		Timeout:     "120s",
	}
	enhancement := extraction
	enhancement.Temperature = 0.2
	matching := extraction
	matching.Temperature = 0.1

	return &Config{
		Name:    "talentscout",
		Version: "1.0.0",

		LLM: LLMConfig{
			BaseURL: "http://localhost:11434",
		},

		Specialists: SpecialistsConfig{
			Intent:           extraction,
			NameExtraction:   extraction,
			QueryEnhancement: enhancement,
			FilterMatching:   matching,
			SearchResponse:   response,
			InfoResponse:     response,
			GeneralResponse:  response,
			LicenseResponse:  response,
		},

		Embedding: embedding.DefaultConfig(),

		Store: StoreConfig{
			DatabasePath: "data/talentscout.db",
		},

		SFC: SFCConfig{
			Headless: true,
			Timeout:  "60s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "talentscout.log",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.LLM.BaseURL = host
		c.Embedding.OllamaEndpoint = host
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.Embedding.GenAIAPIKey = key
	}
	if path := os.Getenv("TALENTSCOUT_DB"); path != "" {
		c.Store.DatabasePath = path
	}
}

// GenFor builds a gateway configuration for one specialist.
func (c *Config) GenFor(mc ModelConfig) gateway.GenerationConfig {
	return gateway.GenerationConfig{
		Model:       mc.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: mc.Temperature,
		TopK:        mc.TopK,
		TopP:        mc.TopP,
		MaxTokens:   mc.MaxTokens,
		Stop:        mc.Stop,
		Timeout:     parseDuration(mc.Timeout, 30*time.Second),
	}
}

// SFCCheckerConfig builds the checker configuration from the YAML section.
func (c *Config) SFCCheckerConfig() sfc.Config {
	return sfc.Config{
		Headless:   c.SFC.Headless,
		BrowserBin: c.SFC.BrowserBin,
		Timeout:    parseDuration(c.SFC.Timeout, 60*time.Second),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
