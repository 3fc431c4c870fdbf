package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ragcheck/internal/domain"
)

// recordingRetriever returns scripted results per k and records calls.
type recordingRetriever struct {
	byK   map[int][]domain.RetrievedPassage
	err   error
	calls []int
}

func (r *recordingRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.RetrievedPassage, error) {
	r.calls = append(r.calls, k)
	if r.err != nil {
		return nil, r.err
	}
	return r.byK[k], nil
}

func newChecker(t *testing.T, retr *recordingRetriever, llm *cannedLLM) *Checker {
	t.Helper()
	c, err := NewChecker(retr, NewVerdictRequester(llm, 1000), 6, 12, 0.65)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func compliantResponse() string {
	return `{"rule_id": "R1", "status": "Compliant", "evidence": [{"text": "All data is encrypted at rest using AES-256", "source": "security.txt:0:0"}], "confidence": 0.9, "recommended_corrections": []}`
}

func TestCheckRuleHighScoreSingleStage(t *testing.T) {
	retr := &recordingRetriever{byK: map[int][]domain.RetrievedPassage{
		6: {{
			Chunk: domain.Chunk{Text: "All data is encrypted at rest using AES-256", Meta: domain.ChunkMeta{Source: "security.txt"}},
			Score: 0.9,
		}},
	}}
	llm := &cannedLLM{response: compliantResponse()}
	c := newChecker(t, retr, llm)

	rule := encryptionRule()
	verdict, err := c.CheckRule(context.Background(), rule)
	if err != nil {
		t.Fatal(err)
	}

	if len(retr.calls) != 1 || retr.calls[0] != 6 {
		t.Errorf("expected single stage-1 retrieval, got calls %v", retr.calls)
	}
	if verdict.Status != domain.StatusCompliant {
		t.Errorf("expected Compliant, got %s", verdict.Status)
	}
	found := false
	for _, e := range verdict.Evidence {
		if e.Source == "security.txt:0:0" {
			found = true
		}
	}
	if !found {
		t.Errorf("evidence should cite the passage source: %+v", verdict.Evidence)
	}

	d := verdict.Retrieval
	if d == nil {
		t.Fatal("diagnostics must always be attached")
	}
	if d.Query != "encryption" {
		t.Errorf("expected query 'encryption', got %q", d.Query)
	}
	if d.TopScore != 0.9 || d.EvidenceLow || d.NumRetrieved != 1 {
		t.Errorf("wrong diagnostics: %+v", d)
	}
	if len(verdict.RetrievedDocs) != 1 || verdict.RetrievedDocs[0].Source != "security.txt" {
		t.Errorf("retrieved docs digest wrong: %+v", verdict.RetrievedDocs)
	}
}

func TestCheckRuleWidensOnLowScore(t *testing.T) {
	retr := &recordingRetriever{byK: map[int][]domain.RetrievedPassage{
		6:  passages(0.4),
		12: passages(0.4, 0.3, 0.2),
	}}
	llm := &cannedLLM{response: compliantResponse()}
	c := newChecker(t, retr, llm)

	verdict, err := c.CheckRule(context.Background(), encryptionRule())
	if err != nil {
		t.Fatal(err)
	}

	if len(retr.calls) != 2 || retr.calls[1] != 12 {
		t.Errorf("expected widening to k=12, got calls %v", retr.calls)
	}
	d := verdict.Retrieval
	if !d.EvidenceLow {
		t.Error("evidence_low should be set")
	}
	if d.NumRetrieved != 3 {
		t.Errorf("wider set should replace narrow one, num_retrieved=%d", d.NumRetrieved)
	}
	if d.TopScore != 0.4 {
		t.Errorf("top score should reflect stage 1, got %f", d.TopScore)
	}
}

func TestCheckRuleKeepsNarrowWhenWideEmpty(t *testing.T) {
	retr := &recordingRetriever{byK: map[int][]domain.RetrievedPassage{
		6:  passages(0.4),
		12: nil,
	}}
	llm := &cannedLLM{response: compliantResponse()}
	c := newChecker(t, retr, llm)

	verdict, err := c.CheckRule(context.Background(), encryptionRule())
	if err != nil {
		t.Fatal(err)
	}
	if verdict.Retrieval.NumRetrieved != 1 {
		t.Errorf("stage-1 results must be retained when widening returns nothing, got %d", verdict.Retrieval.NumRetrieved)
	}
}

func TestCheckRuleNoWideningAtThreshold(t *testing.T) {
	retr := &recordingRetriever{byK: map[int][]domain.RetrievedPassage{
		6: passages(0.65),
	}}
	llm := &cannedLLM{response: compliantResponse()}
	c := newChecker(t, retr, llm)

	verdict, err := c.CheckRule(context.Background(), encryptionRule())
	if err != nil {
		t.Fatal(err)
	}
	if len(retr.calls) != 1 {
		t.Errorf("score at threshold must not widen, calls %v", retr.calls)
	}
	if verdict.Retrieval.EvidenceLow {
		t.Error("evidence_low should be false at threshold")
	}
}

func TestCheckRuleEmptyIndexFallbackVerdict(t *testing.T) {
	retr := &recordingRetriever{byK: map[int][]domain.RetrievedPassage{}}
	llm := &cannedLLM{response: "I have no idea."}
	c := newChecker(t, retr, llm)

	verdict, err := c.CheckRule(context.Background(), encryptionRule())
	if err != nil {
		t.Fatal(err)
	}

	// Widening is attempted (trivially) and the model is still invoked
	// with the empty-context marker.
	if len(retr.calls) != 2 {
		t.Errorf("expected trivial widening against empty index, calls %v", retr.calls)
	}
	if !strings.Contains(llm.prompt, "No retrieved passages.") {
		t.Error("model should be invoked with the empty-context marker")
	}
	if verdict.Status != domain.StatusNonCompliant {
		t.Errorf("unparseable reply must fall back to Non-Compliant, got %s", verdict.Status)
	}
	d := verdict.Retrieval
	if d.NumRetrieved != 0 || d.TopScore != 0 || !d.EvidenceLow {
		t.Errorf("wrong diagnostics for empty index: %+v", d)
	}
}

func TestCheckRuleRetrievalFailureFailsCheck(t *testing.T) {
	retr := &recordingRetriever{err: fmt.Errorf("%w: index gone", domain.ErrRetrievalUnavailable)}
	llm := &cannedLLM{response: compliantResponse()}
	c := newChecker(t, retr, llm)

	_, err := c.CheckRule(context.Background(), encryptionRule())
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Errorf("expected ErrRetrievalUnavailable, got %v", err)
	}
	if llm.prompt != "" {
		t.Error("model must not be invoked without retrieval context")
	}
}

func TestCheckRuleModelErrorFailsCheck(t *testing.T) {
	retr := &recordingRetriever{byK: map[int][]domain.RetrievedPassage{6: passages(0.9)}}
	llm := &cannedLLM{err: errors.New("network down")}
	c := newChecker(t, retr, llm)

	_, err := c.CheckRule(context.Background(), encryptionRule())
	if !errors.Is(err, domain.ErrModelInvocation) {
		t.Errorf("expected ErrModelInvocation, got %v", err)
	}
}

func TestNewCheckerValidatesParams(t *testing.T) {
	v := NewVerdictRequester(&cannedLLM{}, 1000)
	if _, err := NewChecker(&recordingRetriever{}, v, 0, 12, 0.65); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for top_k=0, got %v", err)
	}
	if _, err := NewChecker(&recordingRetriever{}, v, 6, 3, 0.65); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for fallback_k < top_k, got %v", err)
	}
}
