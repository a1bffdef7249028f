package chunker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"ragkb/internal/domain"
)

const (
	// DefaultChunkSize is the window length in characters.
	DefaultChunkSize = 4000
	// DefaultOverlap is the number of characters shared by adjacent windows.
	DefaultOverlap = 200
)

var headingRe = regexp.MustCompile(`(?m)^#+\s*(.+)$`)

// WindowChunker splits text into fixed-size character windows with overlap.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates the window settings. chunkSize must exceed overlap
// and overlap must not be negative.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk implements domain.Chunker.
func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	return Split(document.Content, document.Source, c.chunkSize, c.overlap)
}

// ChunkFile implements domain.FileChunker. The returned document carries the
// file content with its base name as source.
func (c *WindowChunker) ChunkFile(path string) (domain.Document, []domain.Chunk, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return domain.Document{}, nil, err
	}
	chunks, err := c.Chunk(doc)
	if err != nil {
		return domain.Document{}, nil, err
	}
	return doc, chunks, nil
}

// Split cuts text into windows of chunkSize characters, advancing by
// chunkSize-overlap. Empty text yields no chunks.
func Split(text, source string, chunkSize, overlap int) ([]domain.Chunk, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	if source == "" {
		return nil, domain.ValidationError("chunk", "source must not be empty")
	}
	runes := []rune(text)
	step := chunkSize - overlap
	var chunks []domain.Chunk
	for start, idx := 0, 0; start < len(runes); start, idx = start+step, idx+1 {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		chunks = append(chunks, domain.Chunk{
			ID:   source + "-" + strconv.Itoa(idx),
			Text: window,
			Meta: domain.ChunkMeta{Source: source, Section: firstHeading(window)},
		})
	}
	return chunks, nil
}

// SplitFile loads path and splits it under the file's base name.
func SplitFile(path string, chunkSize, overlap int) ([]domain.Chunk, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Split(doc.Content, doc.Source, chunkSize, overlap)
}

// ReadDocument loads path as a Document. A missing or unreadable file is an
// IOError; a missing file also matches fs.ErrNotExist.
func ReadDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Document{}, domain.IOError("chunk file", path, fs.ErrNotExist)
		}
		return domain.Document{}, domain.IOError("chunk file", path, err)
	}
	return domain.Document{Source: filepath.Base(path), Path: path, Content: string(data)}, nil
}

func firstHeading(window string) string {
	m := headingRe.FindStringSubmatch(window)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func validate(chunkSize, overlap int) error {
	if overlap < 0 {
		return domain.ValidationError("chunk", "overlap %d must not be negative", overlap)
	}
	if chunkSize <= overlap {
		return domain.ValidationError("chunk", "chunkSize %d must exceed overlap %d", chunkSize, overlap)
	}
	return nil
}
