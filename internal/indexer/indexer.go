// Package indexer orchestrates the chunk/embed/upsert workflow: full
// corpus reindexing with change detection, single-note re-embedding, and
// config invalidation.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/chunk"
	"github.com/solvheim/munin/internal/notes"
	"github.com/solvheim/munin/internal/store"
)

// Stats summarizes one reindex run.
type Stats struct {
	New       int
	Updated   int
	Unchanged int
	Skipped   int
	Deleted   int
	Errors    int
}

// String renders the stats for CLI output.
func (s Stats) String() string {
	return fmt.Sprintf("new=%d updated=%d unchanged=%d skipped=%d deleted=%d errors=%d",
		s.New, s.Updated, s.Unchanged, s.Skipped, s.Deleted, s.Errors)
}

// NotesProvider yields the corpus to index.
type NotesProvider interface {
	All(ctx context.Context) ([]*notes.Note, error)
}

// Config carries the chunking parameters. Together with the embedding
// model name it forms the stored index configuration; changing any of it
// invalidates all prior vectors.
type Config struct {
	ChunkSize    int
	ChunkOverlap int

	// MinChunkChars gates both whole notes and individual chunks:
	// anything shorter after trimming is not worth embedding.
	MinChunkChars int
}

// Indexer drives embedding for one vault index.
type Indexer struct {
	store    *store.Index
	embedder backend.Embedder
	splitter *chunk.Splitter
	cfg      Config

	// Progress, when set, receives per-note embedding progress.
	Progress backend.ProgressFunc
}

// New creates an Indexer over the given index and embedder.
func New(idx *store.Index, embedder backend.Embedder, cfg Config) *Indexer {
	return &Indexer{
		store:    idx,
		embedder: embedder,
		splitter: chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		cfg:      cfg,
	}
}

// storeConfig returns the configuration the produced vectors are valid under.
func (ix *Indexer) storeConfig() store.Config {
	return store.Config{
		EmbeddingModel: ix.embedder.ModelName(),
		ChunkSize:      ix.cfg.ChunkSize,
		ChunkOverlap:   ix.cfg.ChunkOverlap,
	}
}

// ReindexAll embeds the whole corpus. Unchanged notes (same change token
// as last embedding) are skipped without backend calls. Notes no longer
// present in the corpus are deleted from the index. A single note's
// failure is counted and logged, never aborts the run; only a failure to
// enumerate the corpus itself is returned as an error.
func (ix *Indexer) ReindexAll(ctx context.Context, force bool, provider NotesProvider) (Stats, error) {
	var stats Stats

	cfg := ix.storeConfig()
	if force {
		ix.store.Clear()
	} else if !ix.store.ValidateConfig(cfg) {
		slog.Info("index configuration changed, clearing all vectors",
			slog.String("model", cfg.EmbeddingModel),
			slog.Int("chunk_size", cfg.ChunkSize),
			slog.Int("chunk_overlap", cfg.ChunkOverlap))
		ix.store.Clear()
	}
	ix.store.SetConfig(cfg)

	all, err := provider.All(ctx)
	if err != nil {
		return stats, fmt.Errorf("scanning corpus: %w", err)
	}

	seen := make(map[string]struct{}, len(all))
	for _, note := range all {
		seen[note.ID] = struct{}{}

		token, wasIndexed := ix.store.ModifiedToken(note.ID)
		if wasIndexed && token == note.Modified {
			stats.Unchanged++
			continue
		}

		chunks, err := ix.chunkAndEmbed(ctx, note)
		if err != nil {
			stats.Errors++
			slog.Warn("failed to embed note",
				slog.String("note", note.Title),
				slog.String("id", note.ID),
				slog.String("error", err.Error()))
			continue
		}
		if len(chunks) == 0 {
			// Too short to index. Any stale chunks from a prior,
			// longer version must go.
			ix.store.DeleteByNote(note.ID)
			stats.Skipped++
			continue
		}

		ix.store.Upsert(note.ID, chunks)
		if wasIndexed {
			stats.Updated++
		} else {
			stats.New++
		}
	}

	// Deletion detection: anything indexed but not observed this pass
	// is gone from the corpus.
	for _, noteID := range ix.store.NoteIDs() {
		if _, ok := seen[noteID]; !ok {
			ix.store.DeleteByNote(noteID)
			stats.Deleted++
		}
	}

	return stats, nil
}

// ReindexOne re-embeds a single note. Unlike ReindexAll it never runs
// deletion detection for unrelated notes. A note that shrinks below the
// minimum length has its existing chunks removed.
func (ix *Indexer) ReindexOne(ctx context.Context, note *notes.Note) error {
	chunks, err := ix.chunkAndEmbed(ctx, note)
	if err != nil {
		return fmt.Errorf("embedding note %q: %w", note.Title, err)
	}
	if len(chunks) == 0 {
		ix.store.DeleteByNote(note.ID)
		return nil
	}
	ix.store.Upsert(note.ID, chunks)
	return nil
}

// Delete removes a vanished note's chunks.
func (ix *Indexer) Delete(noteID string) {
	ix.store.DeleteByNote(noteID)
}

// chunkAndEmbed runs the chunk/embed sub-flow for one note. Returns nil
// chunks when the note is too short to index.
func (ix *Indexer) chunkAndEmbed(ctx context.Context, note *notes.Note) ([]*store.Chunk, error) {
	text := note.EmbeddingText()
	if len(strings.TrimSpace(text)) < ix.cfg.MinChunkChars {
		return nil, nil
	}

	pieces := ix.splitter.Split(text)
	usable := pieces[:0]
	for _, p := range pieces {
		if len(strings.TrimSpace(p)) >= ix.cfg.MinChunkChars {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return nil, nil
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, usable, ix.Progress)
	if err != nil {
		return nil, err
	}

	meta := store.Metadata{
		NoteID:        note.ID,
		Modified:      note.Modified,
		Title:         note.Title,
		Description:   note.Description,
		Aliases:       store.JoinList(note.Aliases),
		Tags:          store.JoinList(note.Tags),
		OutgoingLinks: store.JoinList(note.OutgoingLinks),
		TotalChunks:   len(usable),
		Location:      note.Location,
	}

	chunks := make([]*store.Chunk, len(usable))
	for i, text := range usable {
		m := meta
		m.ChunkIndex = i
		chunks[i] = &store.Chunk{
			ID:        store.ChunkID(note.ID, i),
			Embedding: embeddings[i],
			Text:      text,
			Metadata:  m,
		}
	}
	return chunks, nil
}
