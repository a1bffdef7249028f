package memory

import (
	"context"
	"sync"

	"ragkb/internal/vectorstore"
)

// Backend keeps the store in process memory. Load and Save deep-copy so a
// caller mutating its Store never changes what was persisted.
type Backend struct {
	mu    sync.RWMutex
	store *vectorstore.Store
	saves int
}

// NewBackend returns an empty in-memory backend.
func NewBackend() *Backend { return &Backend{} }

// NewBackendWith seeds the backend with a copy of store.
func NewBackendWith(store *vectorstore.Store) *Backend {
	return &Backend{store: store.Clone()}
}

func (b *Backend) Name() string { return "memory" }

// Location is empty: nothing is persisted.
func (b *Backend) Location() string { return "" }

// Load returns a copy of the last saved store.
func (b *Backend) Load(ctx context.Context) (*vectorstore.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.store == nil {
		return vectorstore.New(), nil
	}
	return b.store.Clone(), nil
}

// Save keeps a deep copy of store.
func (b *Backend) Save(ctx context.Context, store *vectorstore.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store = store.Clone()
	b.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (b *Backend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}
