package summarizer

import (
	"strings"
	"testing"
)

func TestSummarizePicksFrequentSentences(t *testing.T) {
	text := "# Reserve Audit\n" +
		"The reserve audit checks mineral holdings. " +
		"Lunch was served at noon. " +
		"Every reserve audit is signed by a validator. " +
		"Mineral reserve figures feed the audit log."
	got, err := NewExtractive().Summarize(text, 2)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Contains(got, "Lunch") {
		t.Errorf("unrelated sentence selected: %q", got)
	}
	if strings.Contains(got, "#") {
		t.Errorf("heading leaked into digest: %q", got)
	}
	if n := strings.Count(got, "."); n != 2 {
		t.Errorf("digest has %d sentences, want 2: %q", n, got)
	}
}

func TestSummarizeKeepsDocumentOrder(t *testing.T) {
	text := "Token supply is audited. Weather is mild. Token audits publish token reports."
	got, _ := NewExtractive().Summarize(text, 2)
	first := strings.Index(got, "Token supply")
	second := strings.Index(got, "Token audits")
	if first < 0 || second < 0 || first > second {
		t.Errorf("Summarize() = %q, want both token sentences in order", got)
	}
}

func TestSummarizeWithoutPunctuation(t *testing.T) {
	got, err := NewExtractive().Summarize("  compliance notes  ", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "compliance notes" {
		t.Errorf("Summarize() = %q", got)
	}
}

func TestSummarizeDefaultLimit(t *testing.T) {
	text := "One oracle. Two oracle. Three oracle. Four oracle. Five oracle."
	got, _ := NewExtractive().Summarize(text, 0)
	if n := strings.Count(got, "."); n != DefaultMaxSentences {
		t.Errorf("got %d sentences, want %d", n, DefaultMaxSentences)
	}
}
