package cli

import (
	"fmt"
	"log/slog"
	"time"

	"ragkb/internal/config"
	"ragkb/internal/domain"
	"ragkb/internal/embedding/hash"
	"ragkb/internal/embedding/ollama"
	"ragkb/internal/embedding/openai"
	"ragkb/internal/vectorstore"
	"ragkb/internal/vectorstore/file"
	"ragkb/internal/vectorstore/memory"
	"ragkb/internal/vectorstore/sqlite"
)

func newEmbedder(cfg *config.AppConfig, logger *slog.Logger) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hash", "":
		return hash.NewEmbedder(cfg.Embedder.Dimensions), nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		o := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Dimension: o.Dimensions,
			BatchSize: o.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			return nil, fmt.Errorf("ollama embedder config missing")
		}
		o := cfg.Embedder.Ollama
		var retries int
		if o.MaxRetries != nil {
			retries = *o.MaxRetries
		}
		client, err := ollama.NewClient(ollama.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Path:       o.Path,
			Dimension:  o.Dimensions,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: retries,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("ollama embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func newBackend(cfg *config.AppConfig) (vectorstore.Backend, error) {
	switch cfg.VectorStore.Type {
	case "file", "":
		return file.NewBackend(cfg.VectorStore.Dir), nil
	case "sqlite":
		return sqlite.NewBackend(cfg.VectorStore.SQLitePath), nil
	case "memory":
		return memory.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}
