package usecase

import (
	"context"
	"fmt"

	"ragcheck/internal/domain"
	"ragcheck/internal/port"
)

// Checker orchestrates a single rule check: derive the query, run
// two-stage retrieval, request a verdict, and attach retrieval
// diagnostics. It holds no mutable state across calls beyond the
// underlying index handle, so one Checker serves a whole run.
type Checker struct {
	retriever port.Retriever
	verdicts  *VerdictRequester

	topK         int
	fallbackK    int
	simThreshold float64
}

// NewChecker wires the retriever and verdict requester with the
// retrieval policy parameters.
func NewChecker(retriever port.Retriever, verdicts *VerdictRequester, topK, fallbackK int, simThreshold float64) (*Checker, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrConfiguration, topK)
	}
	if fallbackK < topK {
		return nil, fmt.Errorf("%w: fallback_k (%d) must be >= top_k (%d)", domain.ErrConfiguration, fallbackK, topK)
	}
	return &Checker{
		retriever:    retriever,
		verdicts:     verdicts,
		topK:         topK,
		fallbackK:    fallbackK,
		simThreshold: simThreshold,
	}, nil
}

// CheckRule produces a verdict for one rule. When the narrow stage-1
// top score falls below the similarity threshold the search widens to
// fallbackK, and the wider result set replaces the narrow one only if
// it is non-empty. Retrieval and model errors fail the whole check;
// parse failures surface as the fail-safe verdict instead.
func (c *Checker) CheckRule(ctx context.Context, rule *domain.Rule) (domain.Verdict, error) {
	query := BuildQuery(rule)

	passages, err := c.retriever.Retrieve(ctx, query, c.topK)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("check rule %s: %w", rule.ID, err)
	}

	topScore := 0.0
	if len(passages) > 0 {
		topScore = passages[0].Score
	}
	evidenceLow := topScore < c.simThreshold

	if evidenceLow {
		// Best-effort widening: a stage-2 failure keeps the
		// stage-1 results rather than failing the check.
		if wider, err := c.retriever.Retrieve(ctx, query, c.fallbackK); err == nil && len(wider) > 0 {
			passages = wider
		}
	}

	verdict, err := c.verdicts.Request(ctx, rule, passages)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("check rule %s: %w", rule.ID, err)
	}

	verdict.Retrieval = &domain.RetrievalInfo{
		Query:        query,
		TopScore:     topScore,
		NumRetrieved: len(passages),
		EvidenceLow:  evidenceLow,
	}
	verdict.RetrievedDocs = make([]domain.RetrievedDoc, 0, len(passages))
	for _, p := range passages {
		verdict.RetrievedDocs = append(verdict.RetrievedDocs, domain.RetrievedDoc{
			Source: p.Chunk.Meta.Source,
			Page:   p.Chunk.Meta.Page,
			Score:  p.Score,
		})
	}

	return verdict, nil
}
