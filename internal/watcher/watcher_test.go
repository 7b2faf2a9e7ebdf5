package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/indexer"
	"github.com/solvheim/munin/internal/notes"
	"github.com/solvheim/munin/internal/store"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string, _ backend.ProgressFunc) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = f.Embed(ctx, texts[i])
	}
	return out, nil
}

func (fixedEmbedder) ModelName() string { return "fixed" }

type harness struct {
	root    string
	idx     *store.Index
	flushes atomic.Int64
	cancel  context.CancelFunc
	done    chan error
}

func startWatcher(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()

	h := &harness{root: root, idx: store.New(), done: make(chan error, 1)}
	provider := notes.NewProvider(root)
	ix := indexer.New(h.idx, fixedEmbedder{}, indexer.Config{
		ChunkSize: 500, ChunkOverlap: 50, MinChunkChars: 10,
	})

	w, err := New(root, provider, ix, h.idx, func() { h.flushes.Add(1) }, Options{
		Debounce: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			t.Log("watcher did not stop in time")
		}
	})

	// Let the initial directory registration settle.
	time.Sleep(100 * time.Millisecond)
	return h
}

func (h *harness) waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.Fail(t, "condition not met before deadline")
}

func TestWatcherIndexesNewNote(t *testing.T) {
	h := startWatcher(t)

	path := filepath.Join(h.root, "idea.md")
	require.NoError(t, os.WriteFile(path, []byte("# Idea\n\nA note long enough to index."), 0o644))

	h.waitFor(t, func() bool { return h.idx.TotalChunks() > 0 })
	assert.NotEmpty(t, h.idx.GetByTitle("Idea"))
	assert.Positive(t, h.flushes.Load())
}

func TestWatcherRemovesDeletedNote(t *testing.T) {
	h := startWatcher(t)

	path := filepath.Join(h.root, "gone.md")
	require.NoError(t, os.WriteFile(path, []byte("# Gone\n\nA note long enough to index."), 0o644))
	h.waitFor(t, func() bool { return h.idx.TotalChunks() > 0 })

	require.NoError(t, os.Remove(path))
	h.waitFor(t, func() bool { return h.idx.TotalChunks() == 0 })
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	h := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(h.root, "data.json"), []byte(`{"k":"v"}`), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, h.idx.TotalChunks())
}

func TestWatcherIgnoresHiddenDirectories(t *testing.T) {
	h := startWatcher(t)

	hiddenDir := filepath.Join(h.root, ".munin")
	require.NoError(t, os.MkdirAll(hiddenDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(hiddenDir, "note.md"), []byte("# Hidden\n\nShould never be indexed."), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, h.idx.TotalChunks())
}

func TestWatcherPicksUpNewSubdirectory(t *testing.T) {
	h := startWatcher(t)

	sub := filepath.Join(h.root, "projects")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "plan.md"), []byte("# Plan\n\nA note long enough to index."), 0o644))
	h.waitFor(t, func() bool { return h.idx.TotalChunks() > 0 })
	assert.NotEmpty(t, h.idx.GetByTitle("Plan"))
}

func TestWatcherDeleteOfNoteIndexedInPriorRun(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.md")
	require.NoError(t, os.WriteFile(path, []byte("# Old\n\nA note long enough to index."), 0o644))

	// Simulate a prior run: index the vault before the watcher starts.
	idx := store.New()
	provider := notes.NewProvider(root)
	ix := indexer.New(idx, fixedEmbedder{}, indexer.Config{
		ChunkSize: 500, ChunkOverlap: 50, MinChunkChars: 10,
	})
	_, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	require.Positive(t, idx.TotalChunks())

	w, err := New(root, provider, ix, idx, nil, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(path))
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && idx.TotalChunks() > 0 {
		time.Sleep(20 * time.Millisecond)
	}
	assert.Zero(t, idx.TotalChunks())
}
