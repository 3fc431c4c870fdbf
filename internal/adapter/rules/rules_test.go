package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ragcheck/internal/domain"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeRules(t, `
- id: RULE_001
  name: Data Encryption
  description: Data must be encrypted at rest.
  keywords: [encryption, AES, "at rest"]
  required_phrases: ["encrypted at rest"]
  obligation_type: mandatory
  severity: Critical
- id: RULE_002
  name: Data Retention
  description: Records retained for 7 years.
  severity: Medium
`)

	rules, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	r := rules[0]
	if r.ID != "RULE_001" || r.Name != "Data Encryption" {
		t.Errorf("first rule mis-parsed: %+v", r)
	}
	if len(r.Keywords) != 3 || r.Keywords[0] != "encryption" {
		t.Errorf("keywords mis-parsed: %v", r.Keywords)
	}
	if r.Severity != domain.SeverityCritical {
		t.Errorf("expected Critical severity, got %s", r.Severity)
	}
	// Order preserved.
	if rules[1].ID != "RULE_002" {
		t.Errorf("rule order not preserved: %s", rules[1].ID)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeRules(t, `
- id: R1
  name: First
- id: R1
  name: Second
`)
	if _, err := Load(path); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for duplicate ids, got %v", err)
	}
}

func TestLoadRejectsUnknownSeverity(t *testing.T) {
	path := writeRules(t, `
- id: R1
  name: First
  severity: Catastrophic
`)
	if _, err := Load(path); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unknown severity, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/rules.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
