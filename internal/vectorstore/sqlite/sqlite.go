package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"ragkb/internal/domain"
	"ragkb/internal/vectorstore"
)

const schemaVersion = "1"

// Backend persists a store in a single SQLite database file. Rows are keyed
// by position so load order matches save order exactly.
type Backend struct {
	path string
}

// NewBackend returns a backend for the database at path. The file and its
// parent directory are created on first Save.
func NewBackend(path string) *Backend { return &Backend{path: path} }

func (b *Backend) Name() string { return "sqlite" }

// Location returns the database file path.
func (b *Backend) Location() string { return b.path }

func (b *Backend) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Load reads all rows in position order. A missing database or chunks table
// yields an empty store.
func (b *Backend) Load(ctx context.Context) (*vectorstore.Store, error) {
	info, err := os.Stat(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vectorstore.New(), nil
		}
		return nil, domain.StorageError("load", b.path, err)
	}
	if info.IsDir() {
		return nil, domain.StorageError("load", b.path, errors.New("is a directory"))
	}

	db, err := b.open()
	if err != nil {
		return nil, domain.StorageError("load", b.path, err)
	}
	defer db.Close()

	var n int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'chunks'`).Scan(&n)
	if err != nil {
		return nil, domain.StorageError("load", b.path, err)
	}
	if n == 0 {
		return vectorstore.New(), nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT position, id, text, source, section, page, dims, embedding
		FROM chunks ORDER BY position`)
	if err != nil {
		return nil, domain.StorageError("load", b.path, err)
	}
	defer rows.Close()

	store := vectorstore.New()
	for rows.Next() {
		var (
			position int
			chunk    domain.Chunk
			section  sql.NullString
			page     sql.NullInt64
			dims     sql.NullInt64
			blob     []byte
		)
		if err := rows.Scan(&position, &chunk.ID, &chunk.Text, &chunk.Meta.Source,
			&section, &page, &dims, &blob); err != nil {
			return nil, domain.StorageError("load", b.path, err)
		}
		if position != store.Len() {
			return nil, domain.StorageError("load", b.path,
				fmt.Errorf("gap in chunk positions at %d", store.Len()))
		}
		chunk.Meta.Section = section.String
		if page.Valid {
			p := int(page.Int64)
			chunk.Meta.Page = &p
		}
		var vec domain.Vector
		if dims.Valid {
			vec, err = decodeVector(blob, int(dims.Int64))
			if err != nil {
				return nil, domain.StorageError("load", b.path, fmt.Errorf("chunk %s: %w", chunk.ID, err))
			}
		}
		store.Chunks = append(store.Chunks, chunk)
		store.Embeddings = append(store.Embeddings, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("load", b.path, err)
	}
	return store, nil
}

// Save replaces every row in a single transaction.
func (b *Backend) Save(ctx context.Context, store *vectorstore.Store) error {
	if err := store.Validate(); err != nil {
		return domain.StorageError("save", b.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return domain.StorageError("save", b.path, fmt.Errorf("failed to create directory: %w", err))
	}
	db, err := b.open()
	if err != nil {
		return domain.StorageError("save", b.path, err)
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return domain.StorageError("save", b.path, fmt.Errorf("failed to initialize schema: %w", err))
	}
	if err := replaceAll(ctx, db, store); err != nil {
		return domain.StorageError("save", b.path, err)
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		section TEXT,
		page INTEGER,
		dims INTEGER,
		embedding BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// replaceAll rewrites every row in one transaction, so readers see either
// the previous save or this one.
func replaceAll(ctx context.Context, db *sql.DB, store *vectorstore.Store) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, text, source, section, page, dims, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range store.Chunks {
		var section, page, dims any
		if c.Meta.Section != "" {
			section = c.Meta.Section
		}
		if c.Meta.Page != nil {
			page = *c.Meta.Page
		}
		var blob any
		if v := store.Embeddings[i]; v != nil {
			dims = len(v)
			blob = encodeVector(v)
		}
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.Text, c.Meta.Source, section, page, dims, blob); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	meta := map[string]string{
		"version":    schemaVersion,
		"dimension":  strconv.Itoa(store.Dimension()),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}
