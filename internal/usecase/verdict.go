package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ragcheck/internal/domain"
	"ragcheck/internal/port"
)

const (
	// maxQueryTerms bounds how many keywords and required phrases
	// contribute to the retrieval query.
	maxQueryTerms = 10

	// fallbackConfidence is the confidence of the fail-safe verdict
	// and the normalization default for missing confidence values.
	fallbackConfidence = 0.15
	defaultConfidence  = 0.1
)

const promptTemplate = `SYSTEM: You are a compliance auditor. Use ONLY the context passages below to decide if the rule is satisfied.
Return EXACTLY one JSON object and NOTHING else.

INPUT:
Rule ID: %s
Rule Name: %s
Description: %s
Obligation: %s
Severity: %s

Context Passages:
%s

INSTRUCTIONS:
- Based ONLY on the context, set "status" to exactly one of: "Compliant", "Non-Compliant", or "Not Applicable".
- Provide an array "evidence" of objects with keys "text" (short excerpt) and "source" (filename:page:start_index or available metadata).
- Provide "confidence" as a float between 0.0 and 1.0.
- If Non-Compliant, include up to 3 actionable "recommended_corrections".
- If context does not contain relevant text, say "no evidence" inside evidence (and set confidence low).
- Do NOT hallucinate facts.

Return JSON like:
{
  "rule_id": "<RULE_XXX>",
  "status": "Compliant" | "Non-Compliant" | "Not Applicable",
  "evidence": [{"text":"...", "source":"..."}],
  "confidence": 0.00,
  "recommended_corrections": ["..."]
}
`

// VerdictRequester builds a rule-specific prompt from retrieved
// passages, invokes the language model, and parses its response into a
// structured verdict. Unparseable output is replaced by a
// deterministic fail-safe verdict; absence of a parseable verdict must
// never be silently treated as compliant.
type VerdictRequester struct {
	llm          port.LLM
	excerptChars int
}

// NewVerdictRequester creates a requester over the given model.
// excerptChars caps each passage excerpt rendered into the prompt.
func NewVerdictRequester(llm port.LLM, excerptChars int) *VerdictRequester {
	if excerptChars <= 0 {
		excerptChars = 1000
	}
	return &VerdictRequester{llm: llm, excerptChars: excerptChars}
}

// BuildQuery derives the retrieval query for a rule: the first
// maxQueryTerms keywords followed by the first maxQueryTerms required
// phrases, order preserved. Falls back to the rule name when both
// lists are empty.
func BuildQuery(rule *domain.Rule) string {
	var terms []string
	terms = append(terms, head(rule.Keywords, maxQueryTerms)...)
	terms = append(terms, head(rule.RequiredPhrases, maxQueryTerms)...)
	if len(terms) == 0 {
		return rule.Name
	}
	return strings.Join(terms, " ")
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Request renders the prompt, invokes the model and parses the
// verdict. Model invocation errors propagate unretried; parse and
// validation failures are recovered locally with the fallback verdict.
func (r *VerdictRequester) Request(ctx context.Context, rule *domain.Rule, passages []domain.RetrievedPassage) (domain.Verdict, error) {
	prompt := fmt.Sprintf(promptTemplate,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.ObligationType,
		rule.Severity,
		r.formatContext(passages),
	)

	raw, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		if !errors.Is(err, domain.ErrModelInvocation) {
			err = fmt.Errorf("%w: %v", domain.ErrModelInvocation, err)
		}
		return domain.Verdict{}, err
	}

	verdict, ok := parseVerdict(raw, rule)
	if !ok {
		verdict = fallbackVerdict(rule)
	}
	verdict.RawModelOutput = raw
	return verdict, nil
}

// formatContext renders passages into the bounded context block, in
// rank order, each annotated with provenance and score.
func (r *VerdictRequester) formatContext(passages []domain.RetrievedPassage) string {
	if len(passages) == 0 {
		return "No retrieved passages."
	}

	pieces := make([]string, 0, len(passages))
	for _, p := range passages {
		excerpt := strings.ReplaceAll(strings.TrimSpace(p.Chunk.Text), "\n", " ")
		if runes := []rune(excerpt); len(runes) > r.excerptChars {
			excerpt = string(runes[:r.excerptChars])
		}
		srcID := fmt.Sprintf("%s:%d:%d", p.Chunk.Meta.Source, p.Chunk.Meta.Page, p.Chunk.Meta.StartIndex)
		pieces = append(pieces, fmt.Sprintf("[DOC: %s | score:%.3f]\n%q", srcID, p.Score, excerpt))
	}
	return strings.Join(pieces, "\n\n")
}

// verdictPayload is the wire shape expected from the model.
type verdictPayload struct {
	RuleID                 string            `json:"rule_id"`
	Status                 string            `json:"status"`
	Evidence               []domain.Evidence `json:"evidence"`
	Confidence             *float64          `json:"confidence"`
	RecommendedCorrections []string          `json:"recommended_corrections"`
}

// parseVerdict extracts the first balanced JSON object from raw model
// output, parses and validates it. ok is false when no usable verdict
// could be recovered.
func parseVerdict(raw string, rule *domain.Rule) (domain.Verdict, bool) {
	objText, found := extractJSONObject(raw)
	if !found {
		return domain.Verdict{}, false
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(objText), &payload); err != nil {
		return domain.Verdict{}, false
	}

	status, ok := coerceStatus(payload.Status)
	if !ok {
		return domain.Verdict{}, false
	}

	confidence := defaultConfidence
	if payload.Confidence != nil && *payload.Confidence >= 0 && *payload.Confidence <= 1 {
		confidence = *payload.Confidence
	}

	verdict := domain.Verdict{
		RuleID:                 rule.ID,
		RuleName:               rule.Name,
		Status:                 status,
		Evidence:               payload.Evidence,
		Confidence:             confidence,
		RecommendedCorrections: payload.RecommendedCorrections,
	}
	if verdict.Evidence == nil {
		verdict.Evidence = []domain.Evidence{}
	}
	if verdict.RecommendedCorrections == nil {
		verdict.RecommendedCorrections = []string{}
	}
	return verdict, true
}

// extractJSONObject finds the first balanced top-level JSON object in
// text. The model may wrap JSON in prose or markdown fences, so brace
// matching has to respect string literals and escapes.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// coerceStatus maps a raw status string onto the closest enumerated
// value, tolerating case and punctuation drift.
func coerceStatus(raw string) (domain.Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	switch normalized {
	case "compliant":
		return domain.StatusCompliant, true
	case "noncompliant":
		return domain.StatusNonCompliant, true
	case "notapplicable", "na":
		return domain.StatusNotApplicable, true
	}
	return "", false
}

// fallbackVerdict is the deterministic fail-safe substitute used when
// the model output cannot be reliably parsed.
func fallbackVerdict(rule *domain.Rule) domain.Verdict {
	return domain.Verdict{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Status:   domain.StatusNonCompliant,
		Evidence: []domain.Evidence{
			{Text: "No reliable evidence found in retrieved passages", Source: ""},
		},
		Confidence: fallbackConfidence,
		RecommendedCorrections: []string{
			fmt.Sprintf("Add explicit clause for: %s", rule.Name),
		},
	}
}
