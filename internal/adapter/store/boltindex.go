package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"ragcheck/internal/domain"
	"ragcheck/internal/port"
)

var bucketPassages = []byte("passages")

// PersistStatus is the outcome of finalizing index writes.
type PersistStatus int

const (
	// Persisted means the index data was flushed to durable storage.
	Persisted PersistStatus = iota
	// PersistUnsupported means the backing store has no explicit
	// flush operation and the call was a no-op.
	PersistUnsupported
	// PersistFailed means the flush was attempted and failed.
	PersistFailed
)

// BoltIndex is a persistent vector index backed by BoltDB. It wraps an
// external embedding function: Add embeds chunk text before storing,
// Query embeds the query text before searching. Search is brute-force
// cosine similarity over an in-memory cache, as for corpora of
// compliance documents the index stays small.
//
// A single-writer assumption applies: concurrent processes sharing the
// same database file are not coordinated beyond BoltDB's file lock.
type BoltIndex struct {
	db       *bbolt.DB
	embedder port.Embedder

	mu      sync.RWMutex
	entries map[string]indexEntry
}

type indexEntry struct {
	chunk  domain.Chunk
	vector []float32
}

type storedPassage struct {
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	Page       int       `json:"page,omitempty"`
	StartIndex int       `json:"start_index"`
	Vector     []float32 `json:"vector"`
}

// Open opens (or creates) the index database at path.
func Open(path string, embedder port.Embedder) (*BoltIndex, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPassages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create passages bucket: %w", err)
	}

	idx := &BoltIndex{
		db:       db,
		embedder: embedder,
		entries:  make(map[string]indexEntry),
	}
	if err := idx.loadEntries(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load passages: %w", err)
	}
	return idx, nil
}

func (s *BoltIndex) loadEntries() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPassages)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedPassage
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			s.entries[string(k)] = indexEntry{
				chunk: domain.Chunk{
					Text: stored.Text,
					Meta: domain.ChunkMeta{
						Source:     stored.Source,
						Page:       stored.Page,
						StartIndex: stored.StartIndex,
					},
				},
				vector: stored.Vector,
			}
			return nil
		})
	})
}

// Add embeds the chunks and stores passage + vector. Keys are derived
// from source, offset and content, so re-ingesting identical chunks
// overwrites in place instead of duplicating. Embedding failures
// propagate unchanged, keeping their transient classification.
func (s *BoltIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPassages)
		if b == nil {
			return fmt.Errorf("passages bucket not found")
		}

		for i, chunk := range chunks {
			id := passageID(chunk)
			stored := storedPassage{
				Text:       chunk.Text,
				Source:     chunk.Meta.Source,
				Page:       chunk.Meta.Page,
				StartIndex: chunk.Meta.StartIndex,
				Vector:     vectors[i],
			}
			data, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
			s.entries[id] = indexEntry{chunk: chunk, vector: vectors[i]}
		}
		return nil
	})
}

// Query embeds text and returns the k most similar passages, ordered
// by descending score. Scores are cosine similarity clamped to [0,1].
func (s *BoltIndex) Query(ctx context.Context, text string, k int) ([]domain.RetrievedPassage, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidArgument, k)
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	query := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil
	}

	results := make([]domain.RetrievedPassage, 0, len(s.entries))
	for _, entry := range s.entries {
		results = append(results, domain.RetrievedPassage{
			Chunk: entry.chunk,
			Score: similarity(query, entry.vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of indexed passages.
func (s *BoltIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Persist flushes index writes to disk and reports the outcome
// explicitly instead of swallowing failures.
func (s *BoltIndex) Persist() (PersistStatus, error) {
	if err := s.db.Sync(); err != nil {
		return PersistFailed, fmt.Errorf("sync index db: %w", err)
	}
	return Persisted, nil
}

// Close closes the underlying database.
func (s *BoltIndex) Close() error {
	return s.db.Close()
}

func passageID(c domain.Chunk) string {
	data := fmt.Sprintf("%s:%d:%d:%s", c.Meta.Source, c.Meta.Page, c.Meta.StartIndex, c.Text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}

// similarity is cosine similarity clamped to [0,1] so callers can
// compare it against the configured confidence thresholds.
func similarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
