package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the compliance checker.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Report    ReportConfig    `yaml:"report"`
}

// IngestConfig holds document loading and ingestion configuration.
type IngestConfig struct {
	Includes           []string `yaml:"includes"`
	Excludes           []string `yaml:"excludes"`
	ChunkSize          int      `yaml:"chunk_size"`
	ChunkOverlap       int      `yaml:"chunk_overlap"`
	BatchSize          int      `yaml:"batch_size"`
	RetryCount         int      `yaml:"retry_count"`
	BackoffBaseSeconds int      `yaml:"backoff_base_seconds"`
	PauseSeconds       int      `yaml:"pause_seconds"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK         int     `yaml:"top_k"`
	FallbackK    int     `yaml:"fallback_k"`
	SimThreshold float64 `yaml:"sim_threshold"`
	// ConfThreshold is carried for report consumers; retrieval logic
	// does not use it yet.
	ConfThreshold      float64 `yaml:"conf_threshold"`
	RetryCount         int     `yaml:"retry_count"`
	BackoffBaseSeconds int     `yaml:"backoff_base_seconds"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "gemini", "openai", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// LLMConfig holds language-model provider configuration.
type LLMConfig struct {
	Provider     string  `yaml:"provider"` // "gemini"
	Model        string  `yaml:"model"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	Temperature  float32 `yaml:"temperature"`
	ExcerptChars int     `yaml:"excerpt_chars"`
}

// ReportConfig holds report output configuration.
type ReportConfig struct {
	OutDir string `yaml:"out_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:           []string{"**/*.txt", "**/*.md"},
			Excludes:           []string{"**/.ragcheck/**", "**/node_modules/**", "**/.git/**"},
			ChunkSize:          800,
			ChunkOverlap:       200,
			BatchSize:          2,
			RetryCount:         3,
			BackoffBaseSeconds: 30,
			PauseSeconds:       5,
		},
		Retrieve: RetrieveConfig{
			TopK:               6,
			FallbackK:          12,
			SimThreshold:       0.65,
			ConfThreshold:      0.6,
			RetryCount:         3,
			BackoffBaseSeconds: 2,
		},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Model:     "text-embedding-004",
			APIKeyEnv: "GEMINI_API_KEY",
			Dimension: 768,
		},
		LLM: LLMConfig{
			Provider:     "gemini",
			Model:        "gemini-1.5-flash",
			APIKeyEnv:    "GEMINI_API_KEY",
			Temperature:  0.2,
			ExcerptChars: 1000,
		},
		Report: ReportConfig{
			OutDir: ".",
		},
	}
}

// Validate checks parameter combinations that would make the pipeline
// misbehave rather than fail loudly later.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("retrieve.top_k must be >= 1, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.FallbackK < c.Retrieve.TopK {
		return fmt.Errorf("retrieve.fallback_k (%d) must be >= top_k (%d)", c.Retrieve.FallbackK, c.Retrieve.TopK)
	}
	return nil
}

// BackoffBase returns the ingestion backoff base as a duration.
func (c *IngestConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds) * time.Second
}

// Pause returns the inter-batch pause as a duration.
func (c *IngestConfig) Pause() time.Duration {
	return time.Duration(c.PauseSeconds) * time.Second
}

// BackoffBase returns the retrieval retry backoff base as a duration.
func (c *RetrieveConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds) * time.Second
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragcheck.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragcheck.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragcheck", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the vector index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".ragcheck", "index.db")
}

// EnsureDir ensures the .ragcheck directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".ragcheck"), 0755)
}
