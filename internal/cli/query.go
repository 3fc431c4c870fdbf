package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ragcheck/config"
	"ragcheck/internal/adapter/store"
	"ragcheck/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the vector index directly",
	Long: `Run a similarity search against the index and print the matched
passages with their scores. Useful for inspecting what evidence a rule
check would see.

Examples:
  ragcheck query -q "data encryption at rest"
  ragcheck query -q "retention period" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	StartIndex int     `json:"start_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

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

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	retriever := usecase.NewIndexRetriever(idx, cfg.Retrieve.RetryCount, cfg.Retrieve.BackoffBase())
	passages, err := retriever.Retrieve(ctx, queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]queryResult, 0, len(passages))
	for _, p := range passages {
		results = append(results, queryResult{
			Source:     p.Chunk.Meta.Source,
			Page:       p.Chunk.Meta.Page,
			StartIndex: p.Chunk.Meta.StartIndex,
			Score:      p.Score,
			Text:       p.Chunk.Text,
		})
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s:%d:%d (score: %.3f) ---\n", i+1, r.Source, r.Page, r.StartIndex, r.Score)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}
