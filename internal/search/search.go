package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"ragkb/internal/domain"
	"ragkb/internal/logging"
	"ragkb/internal/vectorstore"
)

// DefaultLimit is used when a caller passes a non-positive limit.
const DefaultLimit = 5

// Searcher ranks stored chunks against a query.
//
// Search is not a pure read. When the stored vectors were produced at a
// different dimension than the query embedder, Search re-embeds every
// non-quarantined chunk with that embedder and persists the result before
// scoring. Later searches then compare like with like.
type Searcher struct {
	backend vectorstore.Backend
	logger  *slog.Logger
	// mu guards the repair write. It may be shared with other writers of the
	// same backend.
	mu *sync.Mutex
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger used for repair events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWriteLock makes repair writes hold mu, so they cannot interleave with
// ingestion through the same mutex.
func WithWriteLock(mu *sync.Mutex) Option {
	return func(s *Searcher) {
		if mu != nil {
			s.mu = mu
		}
	}
}

// NewSearcher returns a Searcher over backend. Without WithWriteLock it
// guards drift repair with its own mutex.
func NewSearcher(backend vectorstore.Backend, opts ...Option) *Searcher {
	s := &Searcher{
		backend: backend,
		logger:  logging.Discard(),
		mu:      &sync.Mutex{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search embeds query with embedder and returns up to limit chunks with a
// positive score, best first. An empty store yields an empty result.
func (s *Searcher) Search(ctx context.Context, query string, embedder domain.Embedder, limit int) ([]domain.SearchResult, error) {
	store, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	if store.Len() == 0 {
		return []domain.SearchResult{}, nil
	}

	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, domain.ServiceError("embed", errShortBatch(1, len(vecs)))
	}
	q := vecs[0]

	if d := store.Dimension(); d != 0 && d != len(q) {
		store, err = s.repair(ctx, embedder, len(q))
		if err != nil {
			return nil, err
		}
	}
	return Rank(q, store, limit), nil
}

// repair reloads the store under the write lock and re-embeds it if it is
// still stale, so two concurrent searches do not both rewrite it.
func (s *Searcher) repair(ctx context.Context, embedder domain.Embedder, dim int) (*vectorstore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	from := store.Dimension()
	if from == 0 || from == dim {
		return store, nil
	}
	n, err := Reembed(ctx, store, embedder)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Save(ctx, store); err != nil {
		return nil, err
	}
	s.logger.Info("re-embedded stale vectors",
		"backend", s.backend.Name(), "embedder", embedder.Name(),
		"from_dim", from, "to_dim", dim, "chunks", n)
	return store, nil
}

// Reembed replaces every non-null embedding in store with a fresh vector
// from embedder and returns how many positions were rewritten. Quarantined
// positions stay null.
func Reembed(ctx context.Context, store *vectorstore.Store, embedder domain.Embedder) (int, error) {
	var (
		positions []int
		texts     []string
	)
	for i, e := range store.Embeddings {
		if e != nil {
			positions = append(positions, i)
			texts = append(texts, store.Chunks[i].Text)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}
	fresh, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(fresh) != len(texts) {
		return 0, domain.ServiceError("embed", errShortBatch(len(texts), len(fresh)))
	}
	updates := make(map[int]domain.Vector, len(positions))
	for j, i := range positions {
		updates[i] = fresh[j]
	}
	if err := store.Replace(updates); err != nil {
		return 0, err
	}
	return len(positions), nil
}

// Rank scores every position of store against q, drops scores <= 0, and
// returns the best limit results. Equal scores keep store order.
func Rank(q domain.Vector, store *vectorstore.Store, limit int) []domain.SearchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}
	results := make([]domain.SearchResult, 0, store.Len())
	for i, e := range store.Embeddings {
		score := Cosine(q, e)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: store.Chunks[i], Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// BySource collapses results to one entry per chunk source with the best
// score seen for it, ordered by relevance and then by first appearance.
func BySource(results []domain.SearchResult) []domain.SourceRelevance {
	idx := make(map[string]int)
	out := make([]domain.SourceRelevance, 0, len(results))
	for _, r := range results {
		src := r.Chunk.Meta.Source
		if i, ok := idx[src]; ok {
			if r.Score > out[i].Relevance {
				out[i].Relevance = r.Score
			}
			continue
		}
		idx[src] = len(out)
		out = append(out, domain.SourceRelevance{Source: src, Relevance: r.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Relevance > out[j].Relevance })
	return out
}

func errShortBatch(want, got int) error {
	return fmt.Errorf("embedder returned %d vectors for %d texts", got, want)
}
