package domain

import "context"

// Document is a single source text handed to the chunker. Path is set when
// the text was read from disk.
type Document struct {
	Source  string
	Path    string
	Content string
}

// ChunkMeta carries provenance for a chunk.
type ChunkMeta struct {
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
	Page    *int   `json:"page,omitempty"`
}

// Chunk is a bounded slice of a source document. ID is "{source}-{index}".
type Chunk struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	Meta ChunkMeta `json:"meta"`
}

// Vector is an embedding. A nil Vector marks a quarantined chunk.
type Vector []float64

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// SourceRelevance is the best score seen for one source.
type SourceRelevance struct {
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}

// SearchRequest is the payload accepted by the chat-facing search entry point.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Embedder converts texts into unit-length vectors. The returned slice has
// one vector per input text, in order.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([]Vector, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// FileChunker is a Chunker that can read its document from disk.
type FileChunker interface {
	Chunker
	ChunkFile(path string) (Document, []Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
