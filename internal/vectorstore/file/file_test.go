package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ragkb/internal/domain"
	"ragkb/internal/vectorstore"
)

func sampleStore() *vectorstore.Store {
	page := 2
	s := vectorstore.New()
	_ = s.Append(
		[]domain.Chunk{
			{ID: "doc1-0", Text: "# Oracle Logs\nvalidator", Meta: domain.ChunkMeta{Source: "doc1", Section: "Oracle Logs"}},
			{ID: "doc1-1", Text: "transparency", Meta: domain.ChunkMeta{Source: "doc1", Page: &page}},
		},
		[]domain.Vector{{0.6, 0.8}, nil},
	)
	return s
}

func TestBackendLoadMissingDirIsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")
	b := NewBackend(dir)
	if b.Location() != dir {
		t.Errorf("Location() = %q, want %q", b.Location(), dir)
	}
	s, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Len() != 0 || len(s.Embeddings) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestBackendSaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "kb")
	b := NewBackend(dir)
	want := sampleStore()
	if err := b.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}

	raw, err := os.ReadFile(filepath.Join(dir, EmbeddingsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "null") {
		t.Errorf("quarantined embedding should persist as null: %s", raw)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("expected exactly two files after save, got %d", len(entries))
	}
}

func TestBackendOneFileMissingIsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := NewBackend(dir)
	if err := b.Save(ctx, sampleStore()); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, EmbeddingsFile)); err != nil {
		t.Fatal(err)
	}
	s, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store when embeddings are absent")
	}
}

func TestBackendCorruptionIsStorageError(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			name: "truncated json",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, ChunksFile), `[{"id": "a-0"`)
				writeFile(t, filepath.Join(dir, EmbeddingsFile), `[]`)
			},
		},
		{
			name: "length mismatch",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, ChunksFile), `[{"id":"a-0","text":"x","meta":{"source":"a"}}]`)
				writeFile(t, filepath.Join(dir, EmbeddingsFile), `[]`)
			},
		},
		{
			name: "directory in place of file",
			setup: func(t *testing.T, dir string) {
				if err := os.Mkdir(filepath.Join(dir, ChunksFile), 0o755); err != nil {
					t.Fatal(err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			_, err := NewBackend(dir).Load(context.Background())
			if !errors.Is(err, domain.ErrStorage) {
				t.Fatalf("expected StorageError, got %v", err)
			}
		})
	}
}

func TestBackendSaveRejectsMisalignedStore(t *testing.T) {
	s := &vectorstore.Store{Chunks: []domain.Chunk{{ID: "a-0"}}}
	err := NewBackend(t.TempDir()).Save(context.Background(), s)
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
