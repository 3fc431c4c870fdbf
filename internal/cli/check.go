package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"ragcheck/config"
	"ragcheck/internal/adapter/llm"
	"ragcheck/internal/adapter/rules"
	"ragcheck/internal/adapter/store"
	"ragcheck/internal/domain"
	"ragcheck/internal/report"
	"ragcheck/internal/usecase"
)

var (
	checkRulesPath string
	checkOutDir    string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check compliance rules against the indexed documents",
	Long: `Check each rule from the rules file against the vector index.

For every rule the most similar passages are retrieved (widening the
search when similarity is low), an LLM judges compliance against those
passages only, and the verdict is recorded with evidence, confidence
and recommended corrections. Reports are written in CSV, Markdown and
JSON.

Examples:
  ragcheck check -r rules.yaml
  ragcheck check -r rules.yaml --out ./reports`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkRulesPath, "rules", "r", "", "rules YAML file (required)")
	checkCmd.Flags().StringVar(&checkOutDir, "out", "", "report output directory (default from config)")
	checkCmd.MarkFlagRequired("rules")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	ruleSet, err := rules.Load(checkRulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if len(ruleSet) == 0 {
		return fmt.Errorf("no rules found in %s", checkRulesPath)
	}

	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found. Run 'ragcheck ingest' first")
	}

	embedder, closeEmbedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	idx, err := store.Open(dbPath, embedder)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	if n, err := idx.Count(); err == nil && n == 0 {
		fmt.Println("Warning: index is empty, verdicts will fall back to Non-Compliant")
	}

	if cfg.LLM.Provider != "gemini" {
		return fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
	model, err := llm.NewGemini(ctx, cfg.LLM.APIKeyEnv, cfg.LLM.Model, cfg.LLM.Temperature)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	defer model.Close()

	retriever := usecase.NewIndexRetriever(idx, cfg.Retrieve.RetryCount, cfg.Retrieve.BackoffBase())
	verdicts := usecase.NewVerdictRequester(model, cfg.LLM.ExcerptChars)
	checker, err := usecase.NewChecker(retriever, verdicts, cfg.Retrieve.TopK, cfg.Retrieve.FallbackK, cfg.Retrieve.SimThreshold)
	if err != nil {
		return fmt.Errorf("invalid retrieval config: %w", err)
	}

	fmt.Printf("Checking %d rules with %s...\n\n", len(ruleSet), model.ModelName())

	results := make([]domain.Verdict, 0, len(ruleSet))
	for i, rule := range ruleSet {
		fmt.Printf("[%d/%d] %s (%s)... ", i+1, len(ruleSet), rule.Name, rule.ID)
		v, err := checker.CheckRule(ctx, &rule)
		if err != nil {
			return fmt.Errorf("check failed for rule %s: %w", rule.ID, err)
		}
		fmt.Printf("%s (%.2f)\n", v.Status, v.Confidence)
		results = append(results, v)
	}

	outDir := cfg.Report.OutDir
	if checkOutDir != "" {
		outDir = checkOutDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	for _, w := range []struct {
		name  string
		write func([]domain.Verdict, string) error
	}{
		{"report.csv", report.WriteCSV},
		{"report.md", report.WriteMarkdown},
		{"report.json", report.WriteJSON},
	} {
		path := filepath.Join(outDir, w.name)
		if err := w.write(results, path); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.name, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}

	return nil
}
