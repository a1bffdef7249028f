package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"io matches io", IOError("chunk file", "a.md", fs.ErrNotExist), ErrIO, true},
		{"io is not storage", IOError("chunk file", "a.md", fs.ErrNotExist), ErrStorage, false},
		{"storage matches", StorageError("load", "chunks.json", errors.New("bad json")), ErrStorage, true},
		{"service matches", ServiceError("embed", errors.New("503")), ErrService, true},
		{"validation matches", ValidationError("chunk", "chunkSize %d <= overlap %d", 10, 20), ErrValidation, true},
		{"wrapped still matches", fmt.Errorf("ingest: %w", ServiceError("embed", errors.New("x"))), ErrService, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := IOError("chunk file", "missing.md", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected cause to be reachable via errors.Is, got %v", err)
	}
	if KindOf(err) != KindIO {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindIO)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Errorf("KindOf(plain) should be empty")
	}
}

func TestErrorMessage(t *testing.T) {
	err := StorageError("load", "/tmp/kb/chunks.json", errors.New("unexpected EOF"))
	want := "load /tmp/kb/chunks.json: storage: unexpected EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
