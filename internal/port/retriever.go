package port

import (
	"context"

	"ragcheck/internal/domain"
)

// Retriever issues a similarity query and returns ranked passages.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedPassage, error)
}
