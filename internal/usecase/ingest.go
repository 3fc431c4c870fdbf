package usecase

import (
	"context"
	"time"

	"ragcheck/internal/domain"
	"ragcheck/internal/port"
)

// Ingestor feeds chunks into the vector index in small batches with
// bounded retry and backoff. Small batches trade throughput for
// resilience: a failed batch only re-embeds one or two chunks on
// retry.
type Ingestor struct {
	index       port.VectorIndex
	batchSize   int
	retryCount  int
	backoffBase time.Duration
	pause       time.Duration

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewIngestor creates a batch ingestor over the given index.
func NewIngestor(index port.VectorIndex, batchSize, retryCount int, backoffBase, pause time.Duration) *Ingestor {
	if batchSize < 1 {
		batchSize = 1
	}
	if retryCount < 1 {
		retryCount = 1
	}
	return &Ingestor{
		index:       index,
		batchSize:   batchSize,
		retryCount:  retryCount,
		backoffBase: backoffBase,
		pause:       pause,
		sleep:       time.Sleep,
	}
}

// BatchRange identifies a half-open chunk range [Start, End) that
// failed permanently.
type BatchRange struct {
	Start int
	End   int
}

// IngestResult reports the outcome of one ingestion run.
type IngestResult struct {
	Succeeded     int
	FailedBatches []BatchRange
}

// Ingest partitions chunks into batches in order and adds each to the
// index. A batch that keeps failing after all retries is recorded and
// skipped; ingestion is never aborted by a single batch. progress, if
// non-nil, is called after each batch with chunks processed so far.
//
// Only context cancellation returns an error; everything else is
// reported through the result.
func (g *Ingestor) Ingest(ctx context.Context, chunks []domain.Chunk, progress func(done, total int)) (*IngestResult, error) {
	result := &IngestResult{}
	total := len(chunks)

	for start := 0; start < total; start += g.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + g.batchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		if g.ingestBatch(ctx, batch) {
			result.Succeeded += len(batch)
		} else {
			result.FailedBatches = append(result.FailedBatches, BatchRange{Start: start, End: end})
		}

		if progress != nil {
			progress(end, total)
		}
	}

	return result, nil
}

// ingestBatch attempts one batch with retries. Transient failures wait
// backoffBase multiplied by the attempt number before the retry;
// unclassified failures wait twice the base.
func (g *Ingestor) ingestBatch(ctx context.Context, batch []domain.Chunk) bool {
	for attempt := 1; attempt <= g.retryCount; attempt++ {
		err := g.index.Add(ctx, batch)
		if err == nil {
			g.sleep(g.pause)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if attempt == g.retryCount {
			break
		}
		if domain.IsTransient(err) {
			g.sleep(g.backoffBase * time.Duration(attempt))
		} else {
			g.sleep(2 * g.backoffBase)
		}
	}
	return false
}
