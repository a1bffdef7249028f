package vectorstore

import (
	"errors"
	"reflect"
	"testing"

	"ragkb/internal/domain"
)

func chunk(id, source string) domain.Chunk {
	return domain.Chunk{ID: id, Text: "text of " + id, Meta: domain.ChunkMeta{Source: source}}
}

func TestStoreAppend(t *testing.T) {
	s := New()
	err := s.Append(
		[]domain.Chunk{chunk("a-0", "a"), chunk("a-1", "a")},
		[]domain.Vector{{1, 0}, {0, 1}},
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if s.Len() != 2 || len(s.Embeddings) != 2 {
		t.Fatalf("unexpected sizes %d/%d", s.Len(), len(s.Embeddings))
	}

	err = s.Append([]domain.Chunk{chunk("b-0", "b")}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if s.Len() != 2 || len(s.Embeddings) != 2 {
		t.Fatalf("failed append must not change the store")
	}
}

func TestStoreReplace(t *testing.T) {
	s := New()
	_ = s.Append(
		[]domain.Chunk{chunk("a-0", "a"), chunk("a-1", "a"), chunk("a-2", "a")},
		[]domain.Vector{{1}, nil, {3}},
	)
	if err := s.Replace(map[int]domain.Vector{2: {9, 9}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	want := []domain.Vector{{1}, nil, {9, 9}}
	if !reflect.DeepEqual(s.Embeddings, want) {
		t.Errorf("Embeddings = %v, want %v", s.Embeddings, want)
	}
	if s.Chunks[2].ID != "a-2" {
		t.Errorf("chunk identity changed: %v", s.Chunks[2])
	}
	if err := s.Replace(map[int]domain.Vector{3: {1}}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ValidationError for out of range, got %v", err)
	}
}

func TestStoreDimensionSkipsQuarantined(t *testing.T) {
	s := &Store{
		Chunks:     []domain.Chunk{chunk("a-0", "a"), chunk("a-1", "a")},
		Embeddings: []domain.Vector{nil, {1, 2, 3}},
	}
	if s.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", s.Dimension())
	}
	if New().Dimension() != 0 {
		t.Errorf("empty store dimension should be 0")
	}
}

func TestStoreQuarantineAndSources(t *testing.T) {
	s := New()
	_ = s.Append(
		[]domain.Chunk{chunk("b-0", "b"), chunk("a-0", "a"), chunk("a-1", "a")},
		[]domain.Vector{{1}, {1}, {1}},
	)
	if n := s.Quarantine("a-1", "nope"); n != 1 {
		t.Errorf("Quarantine() = %d, want 1", n)
	}
	if n := s.Quarantine("a-1"); n != 0 {
		t.Errorf("second Quarantine() = %d, want 0", n)
	}
	if s.Quarantined() != 1 || s.Embeddings[2] != nil {
		t.Errorf("expected position 2 quarantined, got %v", s.Embeddings)
	}
	if got := s.Sources(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Sources() = %v", got)
	}
}

func TestStoreCloneIsDeep(t *testing.T) {
	page := 4
	s := New()
	c := chunk("a-0", "a")
	c.Meta.Page = &page
	_ = s.Append([]domain.Chunk{c}, []domain.Vector{{1, 2}})

	cp := s.Clone()
	cp.Embeddings[0][0] = 42
	*cp.Chunks[0].Meta.Page = 9
	if s.Embeddings[0][0] != 1 || *s.Chunks[0].Meta.Page != 4 {
		t.Fatalf("Clone() shares memory with the original")
	}
}

func TestStoreCloneKeepsEmptyVector(t *testing.T) {
	s := New()
	_ = s.Append([]domain.Chunk{chunk("a-0", "a"), chunk("a-1", "a")}, []domain.Vector{{}, nil})

	cp := s.Clone()
	if cp.Embeddings[0] == nil {
		t.Errorf("zero-length vector became quarantined")
	}
	if cp.Embeddings[1] != nil {
		t.Errorf("quarantined vector = %v, want nil", cp.Embeddings[1])
	}
	if cp.Quarantined() != 1 {
		t.Errorf("Quarantined() = %d, want 1", cp.Quarantined())
	}
}

func TestStoreRemoveSource(t *testing.T) {
	s := New()
	_ = s.Append(
		[]domain.Chunk{chunk("a-0", "a"), chunk("b-0", "b"), chunk("a-1", "a"), chunk("c-0", "c")},
		[]domain.Vector{{1}, {2}, nil, {4}},
	)
	if n := s.RemoveSource("a"); n != 2 {
		t.Fatalf("RemoveSource() = %d, want 2", n)
	}
	if s.Len() != 2 || len(s.Embeddings) != 2 {
		t.Fatalf("lengths = %d/%d, want 2/2", s.Len(), len(s.Embeddings))
	}
	if s.Chunks[0].ID != "b-0" || s.Chunks[1].ID != "c-0" {
		t.Errorf("order not preserved: %v", s.Chunks)
	}
	if s.Embeddings[0][0] != 2 || s.Embeddings[1][0] != 4 {
		t.Errorf("embeddings misaligned: %v", s.Embeddings)
	}
	if n := s.RemoveSource("missing"); n != 0 {
		t.Errorf("RemoveSource(missing) = %d", n)
	}
}
