package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"ragcheck/config"
	"ragcheck/internal/adapter/chunker"
	"ragcheck/internal/adapter/fs"
	"ragcheck/internal/adapter/store"
	"ragcheck/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk documents and add them to the vector index",
	Long: `Load documents from the specified directory, split them into
overlapping chunks and embed each batch into the local vector index.
The index is stored in .ragcheck/index.db within the root directory.

Batches that keep failing after retries are skipped and reported at the
end so a partial run still leaves a usable index.

Examples:
  ragcheck ingest .                # Ingest current directory
  ragcheck ingest /path/to/docs    # Ingest a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	ctx := cmd.Context()

	if err := config.EnsureDir(GetRootDir()); err != nil {
		return fmt.Errorf("failed to create .ragcheck directory: %w", err)
	}

	fmt.Printf("Scanning %s...\n", path)

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	loader := fs.NewLoader(walker)
	docs, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents matched the configured patterns.")
		return nil
	}

	chk, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunking config: %w", err)
	}
	chunks := chk.Split(docs)
	fmt.Printf("Loaded %d documents, %d chunks\n", len(docs), len(chunks))

	embedder, closeEmbedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	dbPath := config.IndexDBPath(GetRootDir())
	idx, err := store.Open(dbPath, embedder)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer idx.Close()

	bar := progressbar.NewOptions(len(chunks),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	ingestor := usecase.NewIngestor(idx, cfg.Ingest.BatchSize, cfg.Ingest.RetryCount,
		cfg.Ingest.BackoffBase(), cfg.Ingest.Pause())

	result, err := ingestor.Ingest(ctx, chunks, func(done, total int) {
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("ingestion aborted: %w", err)
	}

	if status, err := idx.Persist(); status == store.PersistFailed {
		fmt.Printf("\nWarning: failed to flush index: %v\n", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Chunks ingested: %d\n", result.Succeeded)
	fmt.Printf("  Chunks skipped:  %d\n", len(chunks)-result.Succeeded)
	if len(result.FailedBatches) > 0 {
		fmt.Printf("\nFailed batches (chunk ranges):\n")
		for _, b := range result.FailedBatches {
			fmt.Printf("  - [%d, %d)\n", b.Start, b.End)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", dbPath)
	return nil
}
