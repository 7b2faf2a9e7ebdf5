// Package config loads and validates munin configuration.
//
// Configuration is resolved in three layers, later layers winning:
//  1. built-in defaults
//  2. a YAML config file (munin.yaml in the vault or ~/.config/munin/config.yaml)
//  3. MUNIN_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solvheim/munin/internal/apperr"
)

// Default values applied when the config file omits a field.
const (
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultChatModel      = "llama3.1"

	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultMinChunkChars = 50

	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.5
	DefaultRedundancyThreshold = 0.75
	DefaultOverfetchMargin     = 10

	DefaultEmbedConcurrency = 3
	DefaultDebounce         = 2 * time.Second
)

// SnapshotFileName is the vault-relative snapshot file written by the index.
const SnapshotFileName = ".munin/index.json"

// Config is the complete munin configuration.
type Config struct {
	// VaultPath is the root directory of the note vault.
	VaultPath string `yaml:"vault_path"`

	// SnapshotPath is the index snapshot file. Empty means
	// SnapshotFileName resolved under VaultPath.
	SnapshotPath string `yaml:"snapshot_path"`

	Backend BackendConfig `yaml:"backend"`
	Index   IndexConfig   `yaml:"index"`
	Query   QueryConfig   `yaml:"query"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// BackendConfig configures the Ollama embedding/chat service.
type BackendConfig struct {
	Host           string `yaml:"host"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`

	// EmbedConcurrency bounds concurrent embedding requests during a batch.
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

// IndexConfig configures chunking and change detection.
// EmbeddingModel, ChunkSize, and ChunkOverlap together form the stored
// index configuration: a change to any of them invalidates prior vectors.
type IndexConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// MinChunkChars drops chunks (and whole notes) shorter than this
	// after trimming; tiny fragments embed poorly.
	MinChunkChars int `yaml:"min_chunk_chars"`

	// Debounce is the quiet period after a note modification before
	// automatic re-embedding runs.
	Debounce time.Duration `yaml:"debounce"`
}

// QueryConfig configures retrieval behavior.
type QueryConfig struct {
	TopK int `yaml:"top_k"`

	// SimilarityThreshold drops results scoring below it in plain retrieval.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// RedundancyThreshold is the higher bar used for duplicate detection.
	RedundancyThreshold float64 `yaml:"redundancy_threshold"`

	// OverfetchMargin is added to TopK before post-filtering in
	// similar-notes mode to absorb dedup/exclusion losses.
	OverfetchMargin int `yaml:"overfetch_margin"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Host:             DefaultOllamaHost,
			EmbeddingModel:   DefaultEmbeddingModel,
			ChatModel:        DefaultChatModel,
			EmbedConcurrency: DefaultEmbedConcurrency,
		},
		Index: IndexConfig{
			ChunkSize:     DefaultChunkSize,
			ChunkOverlap:  DefaultChunkOverlap,
			MinChunkChars: DefaultMinChunkChars,
			Debounce:      DefaultDebounce,
		},
		Query: QueryConfig{
			TopK:                DefaultTopK,
			SimilarityThreshold: DefaultSimilarityThreshold,
			RedundancyThreshold: DefaultRedundancyThreshold,
			OverfetchMargin:     DefaultOverfetchMargin,
		},
		LogLevel: "info",
	}
}

// Load resolves configuration from defaults, an optional YAML file, and
// environment variables. path may be empty, in which case the standard
// locations are probed and missing files are not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// findConfigFile probes the standard config locations.
func findConfigFile() string {
	candidates := []string{"munin.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "munin", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// applyEnv overlays MUNIN_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MUNIN_VAULT"); v != "" {
		cfg.VaultPath = v
	}
	if v := os.Getenv("MUNIN_OLLAMA_HOST"); v != "" {
		cfg.Backend.Host = v
	}
	if v := os.Getenv("MUNIN_EMBEDDING_MODEL"); v != "" {
		cfg.Backend.EmbeddingModel = v
	}
	if v := os.Getenv("MUNIN_CHAT_MODEL"); v != "" {
		cfg.Backend.ChatModel = v
	}
	if v := os.Getenv("MUNIN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MUNIN_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Query.TopK = n
		}
	}
}

// applyFallbacks fills zero values that yaml may have blanked out and
// resolves the snapshot path against the vault.
func (c *Config) applyFallbacks() {
	d := Default()
	if c.Backend.Host == "" {
		c.Backend.Host = d.Backend.Host
	}
	if c.Backend.EmbeddingModel == "" {
		c.Backend.EmbeddingModel = d.Backend.EmbeddingModel
	}
	if c.Backend.ChatModel == "" {
		c.Backend.ChatModel = d.Backend.ChatModel
	}
	if c.Backend.EmbedConcurrency <= 0 {
		c.Backend.EmbedConcurrency = d.Backend.EmbedConcurrency
	}
	if c.Index.ChunkSize <= 0 {
		c.Index.ChunkSize = d.Index.ChunkSize
	}
	if c.Index.ChunkOverlap <= 0 {
		c.Index.ChunkOverlap = d.Index.ChunkOverlap
	}
	if c.Index.MinChunkChars <= 0 {
		c.Index.MinChunkChars = d.Index.MinChunkChars
	}
	if c.Index.Debounce <= 0 {
		c.Index.Debounce = d.Index.Debounce
	}
	if c.Query.TopK <= 0 {
		c.Query.TopK = d.Query.TopK
	}
	if c.Query.SimilarityThreshold == 0 {
		c.Query.SimilarityThreshold = d.Query.SimilarityThreshold
	}
	if c.Query.RedundancyThreshold == 0 {
		c.Query.RedundancyThreshold = d.Query.RedundancyThreshold
	}
	if c.Query.OverfetchMargin <= 0 {
		c.Query.OverfetchMargin = d.Query.OverfetchMargin
	}
	if c.SnapshotPath == "" && c.VaultPath != "" {
		c.SnapshotPath = filepath.Join(c.VaultPath, SnapshotFileName)
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return apperr.New(apperr.CodeConfigInvalid,
			fmt.Sprintf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
				c.Index.ChunkOverlap, c.Index.ChunkSize), nil)
	}
	if c.Query.SimilarityThreshold < -1 || c.Query.SimilarityThreshold > 1 {
		return apperr.New(apperr.CodeConfigInvalid,
			fmt.Sprintf("similarity_threshold must be in [-1, 1], got %v", c.Query.SimilarityThreshold), nil)
	}
	if c.Query.RedundancyThreshold < -1 || c.Query.RedundancyThreshold > 1 {
		return apperr.New(apperr.CodeConfigInvalid,
			fmt.Sprintf("redundancy_threshold must be in [-1, 1], got %v", c.Query.RedundancyThreshold), nil)
	}
	return nil
}
