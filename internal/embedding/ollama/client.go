package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ragkb/internal/domain"
	"ragkb/internal/embedding"
	"ragkb/internal/logging"
)

// Client is an embeddings client for Ollama and other OpenAI-compatible
// servers. It accepts both the OpenAI `data[].embedding` response shape and
// the Ollama-native `embedding` shape. Point Config.Path at "/v1/embeddings"
// for servers that only speak the OpenAI route.
type Client struct {
	baseURL    string
	path       string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
	logger     *slog.Logger
}

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	// Path is appended to BaseURL; it defaults to "/api/embeddings".
	Path       string
	Dimension  int
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new embeddings client using the provided configuration.
// The API key is optional; local Ollama servers do not need one.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.Path == "" {
		cfg.Path = "/api/embeddings"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		return nil, fmt.Errorf("max retries must not be negative: %d", retries)
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		path:       "/" + strings.TrimPrefix(cfg.Path, "/"),
		apiKey:     key,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: t},
		maxRetries: retries,
		logger:     logging.OrDiscard(logger),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "ollama/" + c.model }

// Dimension returns the configured dimension, or the one observed on the
// first successful response when none was configured.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns one normalized vector per text. The server is called once per
// text since the Ollama embeddings endpoint takes a single prompt.
func (c *Client) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	for i, text := range texts {
		v, err := c.embedOne(ctx, text)
		if err != nil {
			return nil, domain.ServiceError("embed", fmt.Errorf("text %d: %w", i, err))
		}
		out[i] = embedding.Normalize(v)
	}
	return out, nil
}

func (c *Client) embedOne(ctx context.Context, text string) ([]float64, error) {
	type reqBody struct {
		Input  string `json:"input,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model"`
	}
	url := c.baseURL + c.path
	data, err := json.Marshal(reqBody{Input: text, Prompt: text, Model: c.model})
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				if werr := c.wait(ctx, attempt, retryDelay(attempt)); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			// Respect Retry-After if provided
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				delay = time.Duration(secs) * time.Second
			}
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				if werr := c.wait(ctx, attempt, delay); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}
		v, err := decodeEmbedding(payload)
		if err != nil {
			return nil, err
		}
		if c.dimension == 0 {
			c.dimension = len(v)
		}
		return v, nil
	}
}

func decodeEmbedding(payload []byte) ([]float64, error) {
	// Try OpenAI-compatible response first
	var openaiOut struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}
	// Fallback to Ollama-native shape: { "embedding": [...] }
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(ollamaOut.Embedding) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return ollamaOut.Embedding, nil
}

func (c *Client) wait(ctx context.Context, attempt int, d time.Duration) error {
	c.logger.Debug("retrying embeddings request", "attempt", attempt+1, "delay", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
