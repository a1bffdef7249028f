package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Embedder.Type != "hash" || cfg.Embedder.Dimensions != 384 {
		t.Errorf("embedder = %+v", cfg.Embedder)
	}
	if cfg.Chunker.ChunkSize != 4000 || cfg.Chunker.Overlap != 200 {
		t.Errorf("chunker = %+v", cfg.Chunker)
	}
	if cfg.VectorStore.Type != "file" || cfg.Search.Limit != 5 || cfg.Summarizer.MaxSentences != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragkb.yaml")
	content := `embedder:
  type: openai
  openai:
    model: text-embedding-3-large
chunker:
  chunk_size: 1000
  overlap: 100
vector_store:
  type: sqlite
  sqlite_path: /tmp/kb.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Embedder.OpenAI == nil || cfg.Embedder.OpenAI.Model != "text-embedding-3-large" {
		t.Fatalf("openai config = %+v", cfg.Embedder.OpenAI)
	}
	if cfg.Embedder.OpenAI.APIKeyEnv != "OPENAI_API_KEY" || cfg.Embedder.OpenAI.BatchSize != 32 {
		t.Errorf("openai defaults not applied: %+v", cfg.Embedder.OpenAI)
	}
	if cfg.Chunker.ChunkSize != 1000 || cfg.Chunker.Overlap != 100 {
		t.Errorf("chunker = %+v", cfg.Chunker)
	}
	if cfg.VectorStore.SQLitePath != "/tmp/kb.db" {
		t.Errorf("sqlite path = %q", cfg.VectorStore.SQLitePath)
	}
	// Unset sections keep their defaults.
	if cfg.Search.Limit != 5 || cfg.Log.Format != "text" {
		t.Errorf("defaults lost: %+v %+v", cfg.Search, cfg.Log)
	}
}

func TestLoadOllamaConfig(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantRetries int
		wantPath    string
		wantDims    int
	}{
		{"defaults", "embedder:\n  type: ollama\n", 3, "/api/embeddings", 0},
		{"retries disabled", "embedder:\n  type: ollama\n  ollama:\n    max_retries: 0\n    path: /v1/embeddings\n    dimensions: 768\n",
			0, "/v1/embeddings", 768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ragkb.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			o := cfg.Embedder.Ollama
			if o == nil || o.MaxRetries == nil {
				t.Fatalf("ollama config = %+v", o)
			}
			if *o.MaxRetries != tt.wantRetries || o.Path != tt.wantPath || o.Dimensions != tt.wantDims {
				t.Errorf("retries=%d path=%q dims=%d", *o.MaxRetries, o.Path, o.Dimensions)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RAGKB_EMBEDDER", "ollama")
	t.Setenv("RAGKB_STORE", "memory")
	t.Setenv("RAGKB_CHUNK_SIZE", "512")
	t.Setenv("RAGKB_CHUNK_OVERLAP", "64")
	t.Setenv("RAGKB_SEARCH_LIMIT", "9")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Embedder.Type != "ollama" || cfg.Embedder.Ollama == nil || cfg.Embedder.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("embedder = %+v", cfg.Embedder)
	}
	if cfg.VectorStore.Type != "memory" || cfg.Chunker.ChunkSize != 512 || cfg.Chunker.Overlap != 64 || cfg.Search.Limit != 9 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadBadEnvInteger(t *testing.T) {
	t.Setenv("RAGKB_CHUNK_SIZE", "big")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "RAGKB_CHUNK_SIZE") {
		t.Fatalf("expected RAGKB_CHUNK_SIZE error, got %v", err)
	}
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("chunker: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"overlap too large", func(c *AppConfig) { c.Chunker.Overlap = c.Chunker.ChunkSize }, "must exceed overlap"},
		{"negative overlap", func(c *AppConfig) { c.Chunker.Overlap = -1 }, "must not be negative"},
		{"unknown embedder", func(c *AppConfig) { c.Embedder.Type = "word2vec" }, "unknown embedder"},
		{"zero hash dims", func(c *AppConfig) { c.Embedder.Dimensions = 0 }, "dimensions must be positive"},
		{"unknown store", func(c *AppConfig) { c.VectorStore.Type = "qdrant" }, "unknown vector store"},
		{"sqlite without path", func(c *AppConfig) { c.VectorStore.Type = "sqlite"; c.VectorStore.SQLitePath = "" }, "sqlite_path"},
		{"bad log format", func(c *AppConfig) { c.Log.Format = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if want := filepath.Join(home, ".config", "ragkb", "config.yaml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written: %v", err)
	}
	if cfg.Embedder.Type != "hash" {
		t.Errorf("embedder type = %q", cfg.Embedder.Type)
	}
}

func TestLoadDefaultPrefersWorkingDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile("ragkb.yaml", []byte("search:\n  limit: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	if path != "ragkb.yaml" || cfg.Search.Limit != 2 {
		t.Errorf("LoadDefault() = %q, limit %d", path, cfg.Search.Limit)
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
