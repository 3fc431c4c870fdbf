package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ragcheck/internal/adapter/embedding"
	"ragcheck/internal/domain"
)

func testIndex(t *testing.T) *BoltIndex {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.db"), embedding.NewMockEmbedder(16))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestAddAndQuery(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	chunks := []domain.Chunk{
		{Text: "encryption at rest with AES", Meta: domain.ChunkMeta{Source: "security.txt", StartIndex: 0}},
		{Text: "vacation policy for employees", Meta: domain.ChunkMeta{Source: "hr.txt", StartIndex: 0}},
	}
	if err := idx.Add(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 passages, got %d", count)
	}

	results, err := idx.Query(ctx, "encryption at rest with AES", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.Meta.Source != "security.txt" {
		t.Errorf("expected exact match ranked first, got %s", results[0].Chunk.Meta.Source)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not ordered by descending score")
	}
	for _, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score %f out of [0,1]", r.Score)
		}
	}
}

func TestQueryInvalidK(t *testing.T) {
	idx := testIndex(t)
	if _, err := idx.Query(context.Background(), "anything", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	idx := testIndex(t)
	results, err := idx.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(results))
	}
}

func TestAddIdempotent(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	chunk := domain.Chunk{Text: "same content", Meta: domain.ChunkMeta{Source: "a.txt", StartIndex: 10}}
	if err := idx.Add(ctx, []domain.Chunk{chunk}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, []domain.Chunk{chunk}); err != nil {
		t.Fatal(err)
	}

	count, _ := idx.Count()
	if count != 1 {
		t.Errorf("re-ingesting identical chunk should upsert, got count %d", count)
	}
}

func TestReopenLoadsPersistedPassages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	embedder := embedding.NewMockEmbedder(16)
	ctx := context.Background()

	idx, err := Open(path, embedder)
	if err != nil {
		t.Fatal(err)
	}
	chunk := domain.Chunk{Text: "persisted passage", Meta: domain.ChunkMeta{Source: "p.txt", Page: 3, StartIndex: 42}}
	if err := idx.Add(ctx, []domain.Chunk{chunk}); err != nil {
		t.Fatal(err)
	}
	if status, err := idx.Persist(); status != Persisted || err != nil {
		t.Fatalf("expected Persisted, got %v (%v)", status, err)
	}
	idx.Close()

	reopened, err := Open(path, embedder)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	results, err := reopened.Query(ctx, "persisted passage", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result after reopen, got %d", len(results))
	}
	got := results[0].Chunk.Meta
	if got.Source != "p.txt" || got.Page != 3 || got.StartIndex != 42 {
		t.Errorf("provenance not preserved across reopen: %+v", got)
	}
}
