package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormats(t *testing.T) {
	var text bytes.Buffer
	l, err := New("info", "text", &text)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("ingested", "source", "doc1")
	if !strings.Contains(text.String(), "source=doc1") {
		t.Errorf("text output = %q", text.String())
	}

	var js bytes.Buffer
	l, err = New("info", "json", &js)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("ingested", "chunks", 3)
	var rec map[string]any
	if err := json.Unmarshal(js.Bytes(), &rec); err != nil {
		t.Fatalf("json output not decodable: %v", err)
	}
	if rec["chunks"] != float64(3) {
		t.Errorf("chunks = %v", rec["chunks"])
	}
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", "text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New("loud", "text", &bytes.Buffer{}); err == nil {
		t.Error("expected level error")
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected format error")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
}
