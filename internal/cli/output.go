package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ragkb/internal/domain"
	"ragkb/internal/service"
)

var (
	scoreColor  = color.New(color.FgGreen, color.Bold)
	sourceColor = color.New(color.FgCyan)
	dimColor    = color.New(color.FgHiBlack)
	warnColor   = color.New(color.FgYellow)
)

const snippetLen = 160

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(w io.Writer, results []domain.SearchResult) {
	if len(results) == 0 {
		warnColor.Fprintln(w, "No relevant chunks found.")
		return
	}
	for i, r := range results {
		scoreColor.Fprintf(w, "%2d. %.4f ", i+1, r.Score)
		sourceColor.Fprintf(w, "%s", r.Chunk.Meta.Source)
		dimColor.Fprintf(w, " [%s]", r.Chunk.ID)
		if r.Chunk.Meta.Section != "" {
			fmt.Fprintf(w, " § %s", r.Chunk.Meta.Section)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    %s\n", snippet(r.Chunk.Text, snippetLen))
	}
}

func printRelevance(w io.Writer, rel []domain.SourceRelevance) {
	if len(rel) == 0 {
		warnColor.Fprintln(w, "No relevant sources found.")
		return
	}
	for _, r := range rel {
		scoreColor.Fprintf(w, "%.4f ", r.Relevance)
		sourceColor.Fprintln(w, r.Source)
	}
}

func printReport(w io.Writer, r *service.IngestReport) {
	sourceColor.Fprintf(w, "%s", r.Source)
	fmt.Fprintf(w, ": %d chunks", r.Chunks)
	if r.Replaced > 0 {
		dimColor.Fprintf(w, " (replaced %d)", r.Replaced)
	}
	fmt.Fprintln(w)
	if r.Summary != "" {
		dimColor.Fprintf(w, "    %s\n", r.Summary)
	}
}

func printStats(w io.Writer, s *service.Stats) {
	fmt.Fprintf(w, "backend:     %s\n", s.Backend)
	if s.Location != "" {
		fmt.Fprintf(w, "location:    %s\n", s.Location)
	}
	fmt.Fprintf(w, "embedder:    %s\n", s.Embedder)
	fmt.Fprintf(w, "chunks:      %d\n", s.Chunks)
	if s.Quarantined > 0 {
		warnColor.Fprintf(w, "quarantined: %d\n", s.Quarantined)
	} else {
		fmt.Fprintf(w, "quarantined: 0\n")
	}
	fmt.Fprintf(w, "dimension:   %d\n", s.Dimension)
	fmt.Fprintf(w, "sources:     %d\n", len(s.Sources))
	for _, src := range s.Sources {
		sourceColor.Fprintf(w, "  %s\n", src)
	}
}

// snippet flattens whitespace and cuts text to at most n runes.
func snippet(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= n {
		return flat
	}
	return string(r[:n]) + "…"
}
