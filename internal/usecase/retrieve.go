package usecase

import (
	"context"
	"fmt"
	"time"

	"ragcheck/internal/domain"
	"ragcheck/internal/port"
)

// IndexRetriever issues similarity queries against the vector index,
// retrying transient failures with linear backoff. Retrieval errors
// are never swallowed: without context no verdict can be safely
// produced, so exhaustion surfaces ErrRetrievalUnavailable.
type IndexRetriever struct {
	index       port.VectorIndex
	retryCount  int
	backoffBase time.Duration

	sleep func(time.Duration)
}

// NewIndexRetriever creates a retriever over the given index.
func NewIndexRetriever(index port.VectorIndex, retryCount int, backoffBase time.Duration) *IndexRetriever {
	if retryCount < 1 {
		retryCount = 1
	}
	return &IndexRetriever{
		index:       index,
		retryCount:  retryCount,
		backoffBase: backoffBase,
		sleep:       time.Sleep,
	}
}

// Retrieve returns up to k passages ranked by descending similarity.
func (r *IndexRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedPassage, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidArgument, k)
	}

	var lastErr error
	for attempt := 1; attempt <= r.retryCount; attempt++ {
		results, err := r.index.Query(ctx, query, k)
		if err == nil {
			return results, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
		}
		if !domain.IsTransient(err) {
			// Deterministic failure; retrying cannot help.
			return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
		}
		lastErr = err
		if attempt < r.retryCount {
			r.sleep(r.backoffBase * time.Duration(attempt))
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrRetrievalUnavailable, r.retryCount, lastErr)
}
