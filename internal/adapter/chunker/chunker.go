package chunker

import (
	"fmt"

	"ragcheck/internal/domain"
)

// Chunker splits document text into overlapping fixed-size windows
// measured in runes. It holds no state across calls; the same input
// always yields the same chunk boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. overlap must be smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrConfiguration, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split chunks each document into windows of at most size runes,
// consecutive windows overlapping by overlap runes. StartIndex is the
// rune offset of the window within its source document.
func (c *Chunker) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.splitDoc(doc)...)
	}
	return chunks
}

func (c *Chunker) splitDoc(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			Text: string(runes[start:end]),
			Meta: domain.ChunkMeta{
				Source:     doc.Source,
				Page:       doc.Page,
				StartIndex: start,
			},
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}
