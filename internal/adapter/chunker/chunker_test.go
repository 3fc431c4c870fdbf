package chunker

import (
	"errors"
	"strings"
	"testing"

	"ragcheck/internal/domain"
)

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := New(0, 0); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for size=0, got %v", err)
	}
	if _, err := New(100, 100); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for overlap==size, got %v", err)
	}
	if _, err := New(100, 150); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for overlap>size, got %v", err)
	}
	if _, err := New(100, -1); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for negative overlap, got %v", err)
	}
}

func TestSplitBasic(t *testing.T) {
	c, err := New(10, 3)
	if err != nil {
		t.Fatal(err)
	}

	doc := domain.Document{Source: "policy.txt", Text: strings.Repeat("a", 25)}
	chunks := c.Split([]domain.Document{doc})

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, ch := range chunks {
		if ch.Meta.Source != "policy.txt" {
			t.Errorf("expected source policy.txt, got %q", ch.Meta.Source)
		}
		if len([]rune(ch.Text)) > 10 {
			t.Errorf("chunk longer than size: %d", len(ch.Text))
		}
	}
}

func TestSplitOffsetsIncreaseWithoutGaps(t *testing.T) {
	c, err := New(10, 4)
	if err != nil {
		t.Fatal(err)
	}

	text := "The quick brown fox jumps over the lazy dog near the river bank."
	chunks := c.Split([]domain.Document{{Source: "doc", Text: text}})

	prevStart := -1
	prevEnd := 0
	for i, ch := range chunks {
		if ch.Meta.StartIndex <= prevStart {
			t.Errorf("chunk %d: start %d not increasing (prev %d)", i, ch.Meta.StartIndex, prevStart)
		}
		if ch.Meta.StartIndex > prevEnd {
			t.Errorf("chunk %d: coverage gap, start %d > previous end %d", i, ch.Meta.StartIndex, prevEnd)
		}
		prevStart = ch.Meta.StartIndex
		prevEnd = ch.Meta.StartIndex + len([]rune(ch.Text))
	}
	if prevEnd != len([]rune(text)) {
		t.Errorf("last chunk ends at %d, want %d", prevEnd, len([]rune(text)))
	}
}

func TestSplitOverlap(t *testing.T) {
	c, err := New(10, 4)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("x", 30)
	chunks := c.Split([]domain.Document{{Source: "doc", Text: text}})

	for i := 1; i < len(chunks); i++ {
		gap := chunks[i].Meta.StartIndex - chunks[i-1].Meta.StartIndex
		if gap != 6 { // size - overlap
			t.Errorf("chunk %d: step %d, want 6", i, gap)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	c, err := New(8, 2)
	if err != nil {
		t.Fatal(err)
	}

	docs := []domain.Document{{Source: "a", Text: "some repeated content for chunking"}}
	first := c.Split(docs)
	second := c.Split(docs)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitEmptySourceStillValid(t *testing.T) {
	c, err := New(10, 0)
	if err != nil {
		t.Fatal(err)
	}

	chunks := c.Split([]domain.Document{{Text: "anonymous content"}})
	if len(chunks) == 0 {
		t.Fatal("expected chunks for document without source")
	}
	if chunks[0].Meta.Source != "" {
		t.Errorf("expected empty source, got %q", chunks[0].Meta.Source)
	}
}

func TestSplitEmptyDocument(t *testing.T) {
	c, err := New(10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if chunks := c.Split([]domain.Document{{Source: "empty", Text: ""}}); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty document, got %d", len(chunks))
	}
}
