package domain

// Severity classifies how serious a rule violation is.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rule is a single externally defined compliance rule. Rules are
// immutable once loaded and are passed by reference into the checker.
type Rule struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	Keywords        []string `yaml:"keywords" json:"keywords,omitempty"`
	RequiredPhrases []string `yaml:"required_phrases" json:"required_phrases,omitempty"`
	ObligationType  string   `yaml:"obligation_type" json:"obligation_type,omitempty"`
	Severity        Severity `yaml:"severity" json:"severity"`
}

// Document is a raw source document prior to chunking.
type Document struct {
	Source string
	Page   int
	Text   string
}

// ChunkMeta carries the provenance of a chunk.
type ChunkMeta struct {
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"`
	StartIndex int    `json:"start_index"`
}

// Chunk is a bounded slice of a source document. Chunks are immutable;
// the index holds its own copy plus a derived embedding vector.
type Chunk struct {
	Text string    `json:"text"`
	Meta ChunkMeta `json:"metadata"`
}

// RetrievedPassage pairs a chunk with its similarity score for one
// query. Scores are in [0,1], higher meaning more similar.
type RetrievedPassage struct {
	Chunk Chunk
	Score float64
}

// Status is the compliance decision for one rule.
type Status string

const (
	StatusCompliant     Status = "Compliant"
	StatusNonCompliant  Status = "Non-Compliant"
	StatusNotApplicable Status = "Not Applicable"
)

// Valid reports whether s is one of the three allowed verdict states.
func (s Status) Valid() bool {
	switch s {
	case StatusCompliant, StatusNonCompliant, StatusNotApplicable:
		return true
	}
	return false
}

// Evidence is a single supporting excerpt cited by a verdict.
type Evidence struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// RetrievalInfo captures the retrieval diagnostics attached to every
// verdict for auditability of the automated decision.
type RetrievalInfo struct {
	Query        string  `json:"query"`
	TopScore     float64 `json:"top_score"`
	NumRetrieved int     `json:"num_retrieved"`
	EvidenceLow  bool    `json:"evidence_low"`
}

// RetrievedDoc is a compact digest of one retrieved passage, kept on
// the verdict alongside the diagnostics.
type RetrievedDoc struct {
	Source string  `json:"source"`
	Page   int     `json:"page,omitempty"`
	Score  float64 `json:"score"`
}

// Verdict is the structured compliance decision for one rule. It is
// never mutated after construction and is consumed directly by the
// report writers.
type Verdict struct {
	RuleID                 string         `json:"rule_id"`
	RuleName               string         `json:"rule_name,omitempty"`
	Status                 Status         `json:"status"`
	Evidence               []Evidence     `json:"evidence"`
	Confidence             float64        `json:"confidence"`
	RecommendedCorrections []string       `json:"recommended_corrections"`
	Retrieval              *RetrievalInfo `json:"_retrieval,omitempty"`
	RawModelOutput         string         `json:"_raw_model_output,omitempty"`
	RetrievedDocs          []RetrievedDoc `json:"_retrieved_docs,omitempty"`
}
