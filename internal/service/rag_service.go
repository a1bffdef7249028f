package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"ragkb/internal/domain"
	"ragkb/internal/logging"
	"ragkb/internal/search"
	"ragkb/internal/vectorstore"
)

// IngestReport describes one ingested document.
type IngestReport struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
	// Replaced counts chunks of an earlier ingest of the same source that
	// were dropped in favour of the new ones.
	Replaced int    `json:"replaced"`
	Summary  string `json:"summary,omitempty"`
}

// Stats summarizes the persisted store.
type Stats struct {
	Backend     string   `json:"backend"`
	Location    string   `json:"location,omitempty"`
	Embedder    string   `json:"embedder"`
	Chunks      int      `json:"chunks"`
	Quarantined int      `json:"quarantined"`
	Dimension   int      `json:"dimension"`
	Sources     []string `json:"sources"`
}

// RAGServiceImpl wires chunker, embedder, store backend and summarizer into
// the ingest and search entry points. Write paths (ingest, re-embed,
// quarantine and search-time drift repair) share one mutex, so they never
// interleave on the backend. Searches without repair run concurrently.
type RAGServiceImpl struct {
	chunker             domain.FileChunker
	embedder            domain.Embedder
	backend             vectorstore.Backend
	summarizer          domain.Summarizer
	searcher            *search.Searcher
	summaryMaxSentences int
	defaultLimit        int
	logger              *slog.Logger
	mu                  sync.Mutex
}

// Option configures the service.
type Option func(*RAGServiceImpl)

// WithLogger sets the service logger. Nil discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *RAGServiceImpl) { s.logger = logging.OrDiscard(l) }
}

// WithSummaryMaxSentences bounds the digest in IngestReport. Zero disables it.
func WithSummaryMaxSentences(n int) Option {
	return func(s *RAGServiceImpl) { s.summaryMaxSentences = n }
}

// WithDefaultLimit is used when a search passes a non-positive limit.
func WithDefaultLimit(n int) Option {
	return func(s *RAGServiceImpl) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// NewRAGService builds the service. The summarizer may be nil.
func NewRAGService(chunker domain.FileChunker, embedder domain.Embedder, backend vectorstore.Backend, summarizer domain.Summarizer, opts ...Option) *RAGServiceImpl {
	s := &RAGServiceImpl{
		chunker:      chunker,
		embedder:     embedder,
		backend:      backend,
		summarizer:   summarizer,
		defaultLimit: search.DefaultLimit,
		logger:       logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	s.searcher = search.NewSearcher(backend, search.WithLogger(s.logger), search.WithWriteLock(&s.mu))
	return s
}

// IngestFile reads path and ingests it under the file's base name.
func (s *RAGServiceImpl) IngestFile(ctx context.Context, path string) (*IngestReport, error) {
	doc, chunks, err := s.chunker.ChunkFile(path)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, doc, chunks)
}

// IngestText ingests raw text under the given source label.
func (s *RAGServiceImpl) IngestText(ctx context.Context, text, source string) (*IngestReport, error) {
	doc := domain.Document{Source: source, Content: text}
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, doc, chunks)
}

func (s *RAGServiceImpl) ingest(ctx context.Context, doc domain.Document, chunks []domain.Chunk) (*IngestReport, error) {
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "source", doc.Source)
	if doc.Path != "" {
		log = log.With("path", doc.Path)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	// Embedding is the slow step; keep it outside the write lock.
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	replaced := store.RemoveSource(doc.Source)
	if err := store.Append(chunks, vectors); err != nil {
		return nil, err
	}
	if err := s.backend.Save(ctx, store); err != nil {
		return nil, err
	}
	log.Info("ingested document", "chunks", len(chunks), "replaced", replaced,
		"backend", s.backend.Name(), "total", store.Len())

	report := &IngestReport{RunID: runID, Source: doc.Source, Chunks: len(chunks), Replaced: replaced}
	if s.summarizer != nil && s.summaryMaxSentences > 0 {
		summary, err := s.summarizer.Summarize(doc.Content, s.summaryMaxSentences)
		if err != nil {
			log.Warn("summary failed", "err", err)
		} else {
			report.Summary = summary
		}
	}
	return report, nil
}

// Search returns the best matching chunks for query. A non-positive limit
// uses the service default.
func (s *RAGServiceImpl) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.searcher.Search(ctx, query, s.embedder, limit)
}

// Relevant answers the chat-facing search request with one entry per source,
// keeping the best score for each.
func (s *RAGServiceImpl) Relevant(ctx context.Context, req domain.SearchRequest) ([]domain.SourceRelevance, error) {
	results, err := s.Search(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	return search.BySource(results), nil
}

// Reembed rewrites every non-quarantined embedding with the current
// embedder and returns how many were rewritten.
func (s *RAGServiceImpl) Reembed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.backend.Load(ctx)
	if err != nil {
		return 0, err
	}
	from := store.Dimension()
	n, err := search.Reembed(ctx, store, s.embedder)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.backend.Save(ctx, store); err != nil {
		return 0, err
	}
	s.logger.Info("re-embedded store", "embedder", s.embedder.Name(),
		"from_dim", from, "to_dim", store.Dimension(), "chunks", n)
	return n, nil
}

// Quarantine nulls the embeddings of the given chunk ids so search skips them.
func (s *RAGServiceImpl) Quarantine(ctx context.Context, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.backend.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := store.Quarantine(ids...)
	if n == 0 {
		return 0, nil
	}
	if err := s.backend.Save(ctx, store); err != nil {
		return 0, err
	}
	s.logger.Info("quarantined chunks", "count", n)
	return n, nil
}

// Stats reports the size and shape of the persisted store.
func (s *RAGServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	store, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Backend:     s.backend.Name(),
		Location:    s.backend.Location(),
		Embedder:    s.embedder.Name(),
		Chunks:      store.Len(),
		Quarantined: store.Quarantined(),
		Dimension:   store.Dimension(),
		Sources:     store.Sources(),
	}, nil
}
