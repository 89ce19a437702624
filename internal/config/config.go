// Package config loads faqbot settings from YAML, with credentials taken
// from the environment (optionally populated from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "faqbot.yaml"

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// CorpusConfig locates the document source.
type CorpusConfig struct {
	FAQPath string `yaml:"faq_path"`
	DocsDir string `yaml:"docs_dir"`
}

// ChunkerConfig sets the word window.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig selects the embedding service.
type EmbedderConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig selects the chat completion service.
type GeneratorConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig sets fan-out and index backend.
type RetrievalConfig struct {
	K       int    `yaml:"k"`
	Backend string `yaml:"backend"`
}

// IndexConfig locates the saved snapshot.
type IndexConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// OpenAIConfig holds connection details for OpenAI-compatible services.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// OllamaConfig holds connection details for a local Ollama.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Config is the root configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Index     IndexConfig     `yaml:"index"`
	Log       LogConfig       `yaml:"log"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Ollama    OllamaConfig    `yaml:"ollama"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault reads ./faqbot.yaml when present and returns the path used,
// or "" when running on defaults.
func LoadDefault() (*Config, string, error) {
	if _, err := os.Stat(DefaultPath); err == nil {
		cfg, err := Load(DefaultPath)
		return cfg, DefaultPath, err
	}
	return Default(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv populates the environment from .env files. Missing files are
// skipped; existing variables are not overridden.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Credential returns the OpenAI API key, if one is set.
func (c *Config) Credential() (string, bool) {
	key := os.Getenv(c.OpenAI.APIKeyEnv)
	return key, key != ""
}

// NeedsCredential reports whether any configured service is OpenAI.
func (c *Config) NeedsCredential() bool {
	return c.Embedder.Provider == ProviderOpenAI || c.Generator.Provider == ProviderOpenAI
}

// Validate rejects settings no component can honor.
func (c *Config) Validate() error {
	for name, p := range map[string]string{"embedder": c.Embedder.Provider, "generator": c.Generator.Provider} {
		if p != ProviderOpenAI && p != ProviderOllama {
			return fmt.Errorf("%s.provider must be %q or %q, got %q", name, ProviderOpenAI, ProviderOllama, p)
		}
	}
	switch c.Retrieval.Backend {
	case "auto", "sqlite-vec", "bruteforce":
	default:
		return fmt.Errorf("retrieval.backend must be auto, sqlite-vec or bruteforce, got %q", c.Retrieval.Backend)
	}
	if c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker.overlap (%d) must be smaller than chunker.size (%d)", c.Chunker.Overlap, c.Chunker.Size)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Corpus.FAQPath == "" {
		cfg.Corpus.FAQPath = "data/insurance_faq.csv"
	}
	if cfg.Corpus.DocsDir == "" {
		cfg.Corpus.DocsDir = "data/insurance_docs"
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 500
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 50
	}

	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = ProviderOpenAI
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
		if cfg.Embedder.Provider == ProviderOllama {
			cfg.Embedder.Model = "nomic-embed-text"
		}
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 100
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 60
	}

	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = ProviderOpenAI
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4o-mini"
		if cfg.Generator.Provider == ProviderOllama {
			cfg.Generator.Model = "qwen3:8b"
		}
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 120
	}

	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 5
	}
	if cfg.Retrieval.Backend == "" {
		cfg.Retrieval.Backend = "auto"
	}
	if cfg.Index.SnapshotPath == "" {
		cfg.Index.SnapshotPath = ".faqbot/index.db"
	}

	if cfg.Log.File == "" {
		cfg.Log.File = ".faqbot/faqbot.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = "http://localhost:11434"
	}
}
