// Package rules loads compliance rules from YAML files.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ragcheck/internal/domain"
)

// Load reads an ordered sequence of rules from a YAML file and
// validates it. Rule order is preserved; checks run in file order.
func Load(path string) ([]domain.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []domain.Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func validate(rules []domain.Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return fmt.Errorf("%w: rule %d has no id", domain.ErrConfiguration, i)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate rule id %q", domain.ErrConfiguration, r.ID)
		}
		seen[r.ID] = struct{}{}
		if r.Name == "" {
			return fmt.Errorf("%w: rule %q has no name", domain.ErrConfiguration, r.ID)
		}
		if r.Severity != "" && !r.Severity.Valid() {
			return fmt.Errorf("%w: rule %q has unknown severity %q", domain.ErrConfiguration, r.ID, r.Severity)
		}
	}
	return nil
}
