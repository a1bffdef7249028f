package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ragkb/internal/domain"
	"ragkb/internal/vectorstore"
)

// File names inside the backend directory.
const (
	ChunksFile     = "chunks.json"
	EmbeddingsFile = "embeddings.json"
)

// Backend stores chunks and embeddings as two sibling JSON files in Location.
// Only a missing file counts as "not ingested yet"; anything else that stops
// a read, including a directory in place of a file, is a StorageError.
type Backend struct {
	dir string
}

// NewBackend returns a backend rooted at dir. The directory is created on
// first Save.
func NewBackend(dir string) *Backend { return &Backend{dir: dir} }

func (b *Backend) Name() string { return "file" }

// Location returns the directory holding the two files.
func (b *Backend) Location() string { return b.dir }

func (b *Backend) chunksPath() string     { return filepath.Join(b.dir, ChunksFile) }
func (b *Backend) embeddingsPath() string { return filepath.Join(b.dir, EmbeddingsFile) }

// Load reads both files. Missing files yield an empty store.
func (b *Backend) Load(ctx context.Context) (*vectorstore.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chunks []domain.Chunk
	found, err := readJSON(b.chunksPath(), &chunks)
	if err != nil || !found {
		return emptyOr(err)
	}
	var embeddings []domain.Vector
	found, err = readJSON(b.embeddingsPath(), &embeddings)
	if err != nil || !found {
		return emptyOr(err)
	}
	store := &vectorstore.Store{Chunks: chunks, Embeddings: embeddings}
	if store.Chunks == nil {
		store.Chunks = []domain.Chunk{}
	}
	if store.Embeddings == nil {
		store.Embeddings = []domain.Vector{}
	}
	if err := store.Validate(); err != nil {
		return nil, domain.StorageError("load", b.dir, err)
	}
	return store, nil
}

// Save writes both files to temporary names, then renames them into place.
func (b *Backend) Save(ctx context.Context, store *vectorstore.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.Validate(); err != nil {
		return domain.StorageError("save", b.dir, err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return domain.StorageError("save", b.dir, err)
	}
	chunks := store.Chunks
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	embeddings := store.Embeddings
	if embeddings == nil {
		embeddings = []domain.Vector{}
	}

	chunksTmp, err := writeTemp(b.dir, ChunksFile, chunks)
	if err != nil {
		return domain.StorageError("save", b.chunksPath(), err)
	}
	embeddingsTmp, err := writeTemp(b.dir, EmbeddingsFile, embeddings)
	if err != nil {
		_ = os.Remove(chunksTmp)
		return domain.StorageError("save", b.embeddingsPath(), err)
	}
	// Both payloads are on disk before either rename, so a failed write never
	// leaves one new file next to one old file.
	if err := os.Rename(chunksTmp, b.chunksPath()); err != nil {
		_ = os.Remove(chunksTmp)
		_ = os.Remove(embeddingsTmp)
		return domain.StorageError("save", b.chunksPath(), err)
	}
	if err := os.Rename(embeddingsTmp, b.embeddingsPath()); err != nil {
		_ = os.Remove(embeddingsTmp)
		return domain.StorageError("save", b.embeddingsPath(), err)
	}
	return nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from the configured store dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, domain.StorageError("load", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, domain.StorageError("load", path, fmt.Errorf("decode: %w", err))
	}
	return true, nil
}

func emptyOr(err error) (*vectorstore.Store, error) {
	if err != nil {
		return nil, err
	}
	return vectorstore.New(), nil
}

func writeTemp(dir, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	f, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
