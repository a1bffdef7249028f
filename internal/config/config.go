package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI embedder.
type OpenAIEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	// Dimensions requests shortened text-embedding-3 vectors; 0 keeps the native size.
	Dimensions int `yaml:"dimensions"`
	BatchSize  int `yaml:"batch_size"`
}

// OllamaEmbedderConfig holds configuration for the Ollama-compatible HTTP embedder.
type OllamaEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	// Path is the embeddings endpoint below BaseURL.
	Path string `yaml:"path"`
	// Dimensions is the expected vector size; 0 takes it from the first response.
	Dimensions  int `yaml:"dimensions"`
	TimeoutSecs int `yaml:"timeout_secs"`
	// MaxRetries defaults to 3 when unset; an explicit 0 disables retries.
	MaxRetries *int `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type string `yaml:"type"`
	// Dimensions is the vector size of the hash embedder.
	Dimensions int                   `yaml:"dimensions"`
	OpenAI     *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama     *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// ChunkerConfig configures the fixed-window chunker. Sizes count characters.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// VectorStoreConfig selects and configures where the store is persisted.
type VectorStoreConfig struct {
	Type       string `yaml:"type"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	Limit int `yaml:"limit"`
}

// SummarizerConfig configures the ingest digest.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Search      SearchConfig      `yaml:"search"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from path, then applies RAGKB_* environment overrides
// and validates the result. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	applyConfigDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDefault tries ./ragkb.yaml first, then ~/.config/ragkb/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragkb/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "ragkb.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, Default()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the chunker, store or embedder factory cannot use.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Chunker.Overlap < 0 {
		errs = append(errs, fmt.Errorf("chunker.overlap must not be negative: %d", c.Chunker.Overlap))
	}
	if c.Chunker.ChunkSize <= c.Chunker.Overlap {
		errs = append(errs, fmt.Errorf("chunker.chunk_size (%d) must exceed overlap (%d)", c.Chunker.ChunkSize, c.Chunker.Overlap))
	}
	switch c.Embedder.Type {
	case "hash":
		if c.Embedder.Dimensions <= 0 {
			errs = append(errs, fmt.Errorf("embedder.dimensions must be positive: %d", c.Embedder.Dimensions))
		}
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder type %q", c.Embedder.Type))
	}
	switch c.VectorStore.Type {
	case "file":
		if c.VectorStore.Dir == "" {
			errs = append(errs, errors.New("vector_store.dir is required for the file store"))
		}
	case "sqlite":
		if c.VectorStore.SQLitePath == "" {
			errs = append(errs, errors.New("vector_store.sqlite_path is required for the sqlite store"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown vector store type %q", c.VectorStore.Type))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragkb", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Embedder:    EmbedderConfig{Type: "hash", Dimensions: 384},
		Chunker:     ChunkerConfig{ChunkSize: 4000, Overlap: 200},
		VectorStore: VectorStoreConfig{Type: "file", Dir: filepath.Join("data", "kb"), SQLitePath: filepath.Join("data", "kb.db")},
		Search:      SearchConfig{Limit: 5},
		Summarizer:  SummarizerConfig{MaxSentences: 3},
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Search.Limit <= 0 {
		cfg.Search.Limit = 5
	}
	if cfg.Summarizer.MaxSentences <= 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		o := cfg.Embedder.Ollama
		if o.BaseURL == "" {
			o.BaseURL = "http://localhost:11434"
		}
		if o.Model == "" {
			o.Model = "nomic-embed-text"
		}
		if o.Path == "" {
			o.Path = "/api/embeddings"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == nil {
			retries := 3
			o.MaxRetries = &retries
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) error {
	envMappings := map[string]func(string) error{
		"RAGKB_EMBEDDER":            func(v string) error { cfg.Embedder.Type = v; return nil },
		"RAGKB_EMBEDDER_DIMENSIONS": func(v string) error { return parseInt(v, &cfg.Embedder.Dimensions) },
		"RAGKB_STORE":               func(v string) error { cfg.VectorStore.Type = v; return nil },
		"RAGKB_STORE_DIR":           func(v string) error { cfg.VectorStore.Dir = v; return nil },
		"RAGKB_SQLITE_PATH":         func(v string) error { cfg.VectorStore.SQLitePath = v; return nil },
		"RAGKB_CHUNK_SIZE":          func(v string) error { return parseInt(v, &cfg.Chunker.ChunkSize) },
		"RAGKB_CHUNK_OVERLAP":       func(v string) error { return parseInt(v, &cfg.Chunker.Overlap) },
		"RAGKB_SEARCH_LIMIT":        func(v string) error { return parseInt(v, &cfg.Search.Limit) },
		"RAGKB_LOG_LEVEL":           func(v string) error { cfg.Log.Level = v; return nil },
	}
	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}
	// A type switched by env still needs its sub-config defaults.
	applyConfigDefaults(cfg)
	return nil
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}
