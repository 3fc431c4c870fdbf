package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"ragcheck/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragcheck",
	Short: "RAG Compliance Checker - Verify documents against compliance rules",
	Long: `ragcheck ingests policy documents into a local vector index and checks
each compliance rule against the most relevant passages using an LLM,
producing structured verdicts with evidence and recommended corrections.

Example usage:
  ragcheck ingest ./docs            # Chunk and index documents
  ragcheck check -r rules.yaml      # Check rules against the index
  ragcheck query -q "encryption"    # Inspect what the index retrieves`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// Best effort: a missing .env is not an error.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragcheck.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
