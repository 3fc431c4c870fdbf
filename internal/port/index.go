package port

import (
	"context"

	"ragcheck/internal/domain"
)

// VectorIndex is the persistent similarity index the pipeline ingests
// into and retrieves from. Add is idempotent per call and may fail
// transiently; Query returns passages ordered by descending score.
type VectorIndex interface {
	Add(ctx context.Context, chunks []domain.Chunk) error

	Query(ctx context.Context, text string, k int) ([]domain.RetrievedPassage, error)

	Count() (int, error)
}
