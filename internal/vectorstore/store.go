package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"ragkb/internal/domain"
)

// Backend persists a Store as a pair of index-aligned collections.
//
// Load returns an empty Store when nothing has been persisted yet. Any other
// read failure is a domain StorageError. Save writes both collections
// together; after a failed Save the persisted state is unspecified and the
// whole Save should be retried. Location names where the data lives and is
// empty for backends that keep nothing on disk.
type Backend interface {
	Name() string
	Location() string
	Load(ctx context.Context) (*Store, error)
	Save(ctx context.Context, store *Store) error
}

// Store holds chunks and their embeddings as parallel slices. A nil
// embedding marks a quarantined chunk: it stays in storage but is never
// ranked.
type Store struct {
	Chunks     []domain.Chunk
	Embeddings []domain.Vector
}

// New returns an empty store.
func New() *Store {
	return &Store{Chunks: []domain.Chunk{}, Embeddings: []domain.Vector{}}
}

// Len returns the number of chunk positions.
func (s *Store) Len() int { return len(s.Chunks) }

// Append grows both slices by the same count, in order.
func (s *Store) Append(chunks []domain.Chunk, vectors []domain.Vector) error {
	if len(chunks) != len(vectors) {
		return domain.ValidationError("append", "chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	s.Chunks = append(s.Chunks, chunks...)
	s.Embeddings = append(s.Embeddings, vectors...)
	return nil
}

// Replace overwrites the embeddings at the given positions, leaving chunk
// identity and order untouched.
func (s *Store) Replace(updates map[int]domain.Vector) error {
	for i := range updates {
		if i < 0 || i >= len(s.Embeddings) {
			return domain.ValidationError("replace", "position %d out of range [0,%d)", i, len(s.Embeddings))
		}
	}
	for i, v := range updates {
		s.Embeddings[i] = v
	}
	return nil
}

// Dimension returns the length of the first non-null embedding, or 0.
func (s *Store) Dimension() int {
	for _, e := range s.Embeddings {
		if e != nil {
			return len(e)
		}
	}
	return 0
}

// Quarantine clears the embeddings of the chunks with the given ids and
// returns how many positions changed.
func (s *Store) Quarantine(ids ...string) int {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	n := 0
	for i, c := range s.Chunks {
		if _, ok := want[c.ID]; ok && s.Embeddings[i] != nil {
			s.Embeddings[i] = nil
			n++
		}
	}
	return n
}

// RemoveSource drops every position whose chunk came from source, keeping
// the remaining pairs in order, and returns how many were removed.
func (s *Store) RemoveSource(source string) int {
	kept := 0
	for i, c := range s.Chunks {
		if c.Meta.Source == source {
			continue
		}
		s.Chunks[kept] = c
		s.Embeddings[kept] = s.Embeddings[i]
		kept++
	}
	removed := len(s.Chunks) - kept
	clear(s.Chunks[kept:])
	clear(s.Embeddings[kept:])
	s.Chunks = s.Chunks[:kept]
	s.Embeddings = s.Embeddings[:kept]
	return removed
}

// Quarantined counts positions with a null embedding.
func (s *Store) Quarantined() int {
	n := 0
	for _, e := range s.Embeddings {
		if e == nil {
			n++
		}
	}
	return n
}

// Sources lists distinct chunk sources in sorted order.
func (s *Store) Sources() []string {
	seen := make(map[string]struct{})
	for _, c := range s.Chunks {
		seen[c.Meta.Source] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for src := range seen {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// Validate checks the parallel-slice invariant.
func (s *Store) Validate() error {
	if len(s.Chunks) != len(s.Embeddings) {
		return fmt.Errorf("%d chunks but %d embeddings", len(s.Chunks), len(s.Embeddings))
	}
	return nil
}

// Clone deep-copies the store so callers can mutate it freely.
func (s *Store) Clone() *Store {
	out := &Store{
		Chunks:     make([]domain.Chunk, len(s.Chunks)),
		Embeddings: make([]domain.Vector, len(s.Embeddings)),
	}
	for i, c := range s.Chunks {
		if c.Meta.Page != nil {
			p := *c.Meta.Page
			c.Meta.Page = &p
		}
		out.Chunks[i] = c
	}
	for i, e := range s.Embeddings {
		if e != nil {
			out.Embeddings[i] = make(domain.Vector, len(e))
			copy(out.Embeddings[i], e)
		}
	}
	return out
}
