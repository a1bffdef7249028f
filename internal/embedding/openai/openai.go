package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"ragkb/internal/domain"
	"ragkb/internal/embedding"
)

// Client is an OpenAI embeddings client implementing domain.Embedder.
type Client struct {
	client    *goopenai.Client
	model     string
	dimension int
	batchSize int
}

// Config configures the OpenAI embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	// Dimension requests shortened embeddings from text-embedding-3 models.
	// Zero keeps the model's native size.
	Dimension int
	BatchSize int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(goopenai.SmallEmbedding3)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = nativeDimension(cfg.Model)
	}
	return &Client{
		client:    goopenai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: dim,
		batchSize: cfg.BatchSize,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai/" + c.model }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed sends texts in batches and returns normalized vectors in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	offset := 0
	for _, batch := range embedding.Batches(texts, c.batchSize) {
		req := goopenai.EmbeddingRequest{
			Input: batch,
			Model: goopenai.EmbeddingModel(c.model),
		}
		if c.dimension != nativeDimension(c.model) {
			req.Dimensions = c.dimension
		}
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, domain.ServiceError("embed", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, domain.ServiceError("embed",
				fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data)))
		}
		seen := make([]bool, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, domain.ServiceError("embed", fmt.Errorf("embedding index %d out of range", d.Index))
			}
			if seen[d.Index] {
				return nil, domain.ServiceError("embed", fmt.Errorf("duplicate embedding index %d", d.Index))
			}
			seen[d.Index] = true
			if len(d.Embedding) == 0 {
				return nil, domain.ServiceError("embed", errors.New("empty embedding"))
			}
			out[offset+d.Index] = embedding.Normalize(embedding.FromFloat32(d.Embedding))
		}
		offset += len(batch)
	}
	return out, nil
}

func nativeDimension(model string) int {
	switch goopenai.EmbeddingModel(model) {
	case goopenai.LargeEmbedding3:
		return 3072
	case goopenai.SmallEmbedding3, goopenai.AdaEmbeddingV2:
		return 1536
	default:
		return 0
	}
}
