package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes failures surfaced by the retrieval core.
type ErrorKind string

const (
	// KindIO is a chunker file read failure.
	KindIO ErrorKind = "io"

	// KindStorage is corrupt or unreadable persisted store data.
	KindStorage ErrorKind = "storage"

	// KindService is an embedding backend failure.
	KindService ErrorKind = "service"

	// KindValidation is malformed input.
	KindValidation ErrorKind = "validation"
)

// Sentinels for errors.Is checks against a kind.
var (
	ErrIO         = &Error{Kind: KindIO}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrService    = &Error{Kind: KindService}
	ErrValidation = &Error{Kind: KindValidation}
)

// Error is the typed error returned by chunker, store and embedders.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string
	head := e.Op
	if e.Path != "" {
		head = strings.TrimSpace(head + " " + e.Path)
	}
	if head != "" {
		parts = append(parts, head)
	}
	parts = append(parts, string(e.Kind))
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind && te.Op == "" && te.Err == nil
	}
	return false
}

// IOError wraps a file read failure.
func IOError(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// StorageError wraps a persisted-state failure.
func StorageError(op, path string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Path: path, Err: err}
}

// ServiceError wraps an embedding backend failure.
func ServiceError(op string, err error) error {
	return &Error{Kind: KindService, Op: op, Err: err}
}

// ValidationError reports malformed input.
func ValidationError(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
