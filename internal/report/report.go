// Package report writes compliance run results as CSV, Markdown and
// JSON. The Verdict shape is the contract these writers depend on.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragcheck/internal/domain"
)

// WriteCSV writes one row per verdict with flattened evidence.
func WriteCSV(verdicts []domain.Verdict, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"rule_id", "rule_name", "status", "confidence", "evidence", "recommended_corrections", "top_score", "num_retrieved"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, v := range verdicts {
		evidence := make([]string, 0, len(v.Evidence))
		for _, e := range v.Evidence {
			evidence = append(evidence, e.Text+" @ "+e.Source)
		}

		topScore, numRetrieved := "", ""
		if v.Retrieval != nil {
			topScore = fmt.Sprintf("%.3f", v.Retrieval.TopScore)
			numRetrieved = fmt.Sprintf("%d", v.Retrieval.NumRetrieved)
		}

		row := []string{
			v.RuleID,
			v.RuleName,
			string(v.Status),
			fmt.Sprintf("%.2f", v.Confidence),
			strings.Join(evidence, " || "),
			strings.Join(v.RecommendedCorrections, " || "),
			topScore,
			numRetrieved,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteMarkdown writes the verdicts as a Markdown table.
func WriteMarkdown(verdicts []domain.Verdict, path string) error {
	var sb strings.Builder
	sb.WriteString("# Compliance Report\n\n")
	sb.WriteString("| Rule ID | Rule Name | Status | Confidence | Evidence | Recommendations |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")

	for _, v := range verdicts {
		evidence := make([]string, 0, len(v.Evidence))
		for _, e := range v.Evidence {
			evidence = append(evidence, e.Text+" @ "+e.Source)
		}
		sb.WriteString(fmt.Sprintf("|%s|%s|%s|%.2f|%s|%s|\n",
			v.RuleID,
			v.RuleName,
			v.Status,
			v.Confidence,
			strings.Join(evidence, "<br/>"),
			strings.Join(v.RecommendedCorrections, "<br/>"),
		))
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// jsonReport is the envelope around the raw verdicts.
type jsonReport struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Results     []domain.Verdict `json:"results"`
}

// WriteJSON writes the full verdicts, diagnostics included, under a
// run envelope so separate runs can be told apart downstream.
func WriteJSON(verdicts []domain.Verdict, path string) error {
	rep := jsonReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Results:     verdicts,
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write json report: %w", err)
	}
	return nil
}
