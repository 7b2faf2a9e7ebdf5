package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/config"
	"github.com/solvheim/munin/internal/indexer"
	"github.com/solvheim/munin/internal/logging"
	"github.com/solvheim/munin/internal/notes"
	"github.com/solvheim/munin/internal/query"
	"github.com/solvheim/munin/internal/store"
	"github.com/solvheim/munin/internal/ui"
)

// queryCacheSize bounds the LRU over query-text embeddings.
const queryCacheSize = 256

// app wires the shared dependencies every command needs: config,
// logging, the loaded index, the Ollama client, and the vault provider.
type app struct {
	cfg      config.Config
	idx      *store.Index
	client   *backend.Client
	embedder backend.Embedder
	provider *notes.Provider
	printer  *ui.Printer
}

func newApp() (*app, error) {
	if vaultFlag != "" {
		os.Setenv("MUNIN_VAULT", vaultFlag)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.Setup(os.Stderr, cfg.LogLevel)

	if cfg.VaultPath == "" {
		return nil, fmt.Errorf("no vault configured: set vault_path in munin.yaml, MUNIN_VAULT, or --vault")
	}

	idx := store.New()
	if err := idx.Load(cfg.SnapshotPath); err != nil {
		return nil, fmt.Errorf("loading index snapshot: %w", err)
	}

	client := backend.NewClient(backend.Config{
		Host:           cfg.Backend.Host,
		EmbeddingModel: cfg.Backend.EmbeddingModel,
		ChatModel:      cfg.Backend.ChatModel,
		Concurrency:    cfg.Backend.EmbedConcurrency,
	})

	return &app{
		cfg:      cfg,
		idx:      idx,
		client:   client,
		embedder: backend.NewCachedEmbedder(client, queryCacheSize),
		provider: notes.NewProvider(cfg.VaultPath),
		printer:  ui.NewPrinter(os.Stdout),
	}, nil
}

// indexer builds the reindexing orchestrator. The raw client is used
// here; chunk texts rarely repeat, so the query cache would only churn.
func (a *app) indexer() *indexer.Indexer {
	return indexer.New(a.idx, a.client, indexer.Config{
		ChunkSize:     a.cfg.Index.ChunkSize,
		ChunkOverlap:  a.cfg.Index.ChunkOverlap,
		MinChunkChars: a.cfg.Index.MinChunkChars,
	})
}

func (a *app) engine() *query.Engine {
	return query.New(a.idx, a.embedder, a.client, a.provider, query.Config{
		TopK:                a.cfg.Query.TopK,
		SimilarityThreshold: a.cfg.Query.SimilarityThreshold,
		RedundancyThreshold: a.cfg.Query.RedundancyThreshold,
		OverfetchMargin:     a.cfg.Query.OverfetchMargin,
	})
}

// flush persists the snapshot. Mutating commands call it on their way
// out; Persist is a no-op when the index is clean.
func (a *app) flush() {
	if err := a.idx.Persist(a.cfg.SnapshotPath); err != nil {
		slog.Warn("failed to persist index snapshot",
			slog.String("path", a.cfg.SnapshotPath),
			slog.String("error", err.Error()))
	}
}
