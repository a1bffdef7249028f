package hash

import (
	"context"
	"math"
	"strings"
	"unicode/utf16"

	"ragkb/internal/domain"
	"ragkb/internal/embedding"
)

// DefaultDimension matches the small sentence-transformer models this
// embedder stands in for.
const DefaultDimension = 384

const keywordBoost = 0.3

// defaultKeywords reserve one dimension each, in order, starting at 0.
var defaultKeywords = []string{
	"mxtk", "oracle", "validator", "transparency", "token",
	"mineral", "log", "audit", "reserve", "compliance",
}

// Embedder is a deterministic placeholder: a 32-bit polynomial hash of the
// text seeds a sine-based generator, a few keyword dimensions get boosted,
// and the result is L2-normalized.
type Embedder struct {
	dimension int
	keywords  []string
}

// NewEmbedder creates a hash embedder producing vectors of the given length.
// A non-positive dimension falls back to DefaultDimension.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension, keywords: defaultKeywords}
}

// WithKeywords replaces the boosted keyword list.
func (e *Embedder) WithKeywords(keywords ...string) *Embedder {
	kw := make([]string, len(keywords))
	for i, k := range keywords {
		kw[i] = strings.ToLower(k)
	}
	e.keywords = kw
	return e
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hash" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns one vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *Embedder) embedOne(text string) domain.Vector {
	seed := Hash32(text)
	vec := make([]float64, e.dimension)
	for i := range vec {
		x := math.Sin(float64(seed)+float64(i)) * 10000
		vec[i] = x - math.Floor(x)
	}
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		if i >= len(vec) {
			break
		}
		if kw != "" && strings.Contains(lower, kw) {
			vec[i] += keywordBoost
		}
	}
	if embedding.Norm(vec) == 0 {
		return make(domain.Vector, e.dimension)
	}
	return embedding.Normalize(vec)
}

// Hash32 is the Java-style string hash (h = h*31 + c) over UTF-16 code
// units, wrapped to a signed 32-bit integer.
func Hash32(text string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(c)
	}
	return h
}
