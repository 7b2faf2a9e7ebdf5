package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/notes"
	"github.com/solvheim/munin/internal/store"
)

// mockEmbedder records every embedded text and returns vectors derived
// from the text length so results are distinguishable.
type mockEmbedder struct {
	mu       sync.Mutex
	embedded []string
	model    string
	fail     bool
	failFor  string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.fail || (m.failFor != "" && strings.Contains(text, m.failFor)) {
		return nil, errors.New("backend down")
	}
	m.mu.Lock()
	m.embedded = append(m.embedded, text)
	m.mu.Unlock()
	return []float32{float32(len(text)), 1}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string, _ backend.ProgressFunc) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-model"
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.embedded)
}

// staticProvider serves a fixed corpus.
type staticProvider struct {
	notes []*notes.Note
	err   error
}

func (p *staticProvider) All(context.Context) ([]*notes.Note, error) {
	return p.notes, p.err
}

func testNote(id, title, content string) *notes.Note {
	return &notes.Note{
		ID:       id,
		Modified: "1000",
		Title:    title,
		Content:  content,
		Location: title + ".md",
	}
}

func newTestIndexer(idx *store.Index, emb *mockEmbedder) *Indexer {
	return New(idx, emb, Config{ChunkSize: 200, ChunkOverlap: 40, MinChunkChars: 10})
}

func longContent(seed string) string {
	return strings.Repeat(seed+" sentence about the topic. ", 8)
}

func TestReindexAllFreshCorpus(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{}
	ix := newTestIndexer(idx, emb)

	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Alpha", longContent("alpha")),
		testNote("b", "Beta", longContent("beta")),
	}}

	stats, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.New)
	assert.Zero(t, stats.Updated)
	assert.Zero(t, stats.Errors)
	assert.Positive(t, idx.TotalChunks())
	assert.NotNil(t, idx.GetByNote("a"))

	// Chunk metadata is denormalized from the note.
	c := idx.GetByNote("a")[0]
	assert.Equal(t, "Alpha", c.Metadata.Title)
	assert.Equal(t, "1000", c.Metadata.Modified)
	assert.Equal(t, 0, c.Metadata.ChunkIndex)
}

func TestReindexAllUnchangedSkipsBackend(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{}
	ix := newTestIndexer(idx, emb)

	corpus := make([]*notes.Note, 5)
	for i := range corpus {
		corpus[i] = testNote(fmt.Sprintf("n%d", i), fmt.Sprintf("Note%d", i), longContent(fmt.Sprintf("note%d", i)))
	}
	provider := &staticProvider{notes: corpus}

	_, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)

	// Touch every note except note 3.
	for i, n := range corpus {
		if i != 3 {
			n.Modified = "2000"
		}
	}
	callsBefore := emb.calls()

	stats, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 4, stats.Updated)
	assert.Zero(t, stats.New)

	// No embedding call carried note 3's content.
	for _, text := range emb.embedded[callsBefore:] {
		assert.NotContains(t, text, "note3")
	}
}

func TestReindexAllDeletesVanishedNotes(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{}
	ix := newTestIndexer(idx, emb)

	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Alpha", longContent("alpha")),
		testNote("b", "Beta", longContent("beta")),
	}}
	_, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)

	provider.notes = provider.notes[:1]
	stats, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Nil(t, idx.GetByNote("b"))
}

func TestReindexAllCountsShortNotesSkipped(t *testing.T) {
	idx := store.New()
	ix := newTestIndexer(idx, &mockEmbedder{})

	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Tiny", "short"),
	}}
	stats, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.New)
	assert.Zero(t, idx.TotalChunks())
}

func TestReindexAllPerNoteFailureContinues(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{failFor: "poison"}
	ix := newTestIndexer(idx, emb)

	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Good", longContent("good")),
		testNote("b", "Bad", longContent("poison")),
		testNote("c", "AlsoGood", longContent("fine")),
	}}
	stats, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.New)
	assert.Equal(t, 1, stats.Errors)
	assert.NotNil(t, idx.GetByNote("c"))
	assert.Nil(t, idx.GetByNote("b"))
}

func TestReindexAllProviderFailureIsFatal(t *testing.T) {
	ix := newTestIndexer(store.New(), &mockEmbedder{})
	_, err := ix.ReindexAll(context.Background(), false, &staticProvider{err: errors.New("walk failed")})
	assert.Error(t, err)
}

func TestConfigChangeInvalidatesIndex(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{}
	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Alpha", longContent("alpha")),
	}}

	ix := newTestIndexer(idx, emb)
	_, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	firstIDs := idx.GetByNote("a")
	require.NotEmpty(t, firstIDs)

	// Same corpus, different chunk size: all prior vectors are invalid
	// and the note re-embeds even though its token is unchanged.
	ix2 := New(idx, emb, Config{ChunkSize: 100, ChunkOverlap: 20, MinChunkChars: 10})
	stats, err := ix2.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New, "cleared index treats the note as new")
	assert.Zero(t, stats.Unchanged)
	assert.Equal(t, store.Config{EmbeddingModel: "mock-model", ChunkSize: 100, ChunkOverlap: 20}, idx.Config())
}

func TestModelChangeInvalidatesIndex(t *testing.T) {
	idx := store.New()
	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Alpha", longContent("alpha")),
	}}

	_, err := newTestIndexer(idx, &mockEmbedder{model: "model-one"}).ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)

	ix2 := New(idx, &mockEmbedder{model: "model-two"}, Config{ChunkSize: 200, ChunkOverlap: 40, MinChunkChars: 10})
	stats, err := ix2.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)
}

func TestForceFullClearsFirst(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{}
	ix := newTestIndexer(idx, emb)
	provider := &staticProvider{notes: []*notes.Note{
		testNote("a", "Alpha", longContent("alpha")),
	}}

	_, err := ix.ReindexAll(context.Background(), false, provider)
	require.NoError(t, err)

	stats, err := ix.ReindexAll(context.Background(), true, provider)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New, "forced run re-embeds despite unchanged token")
}

func TestReindexOne(t *testing.T) {
	idx := store.New()
	ix := newTestIndexer(idx, &mockEmbedder{})

	other := testNote("b", "Beta", longContent("beta"))
	require.NoError(t, ix.ReindexOne(context.Background(), other))

	note := testNote("a", "Alpha", longContent("alpha"))
	require.NoError(t, ix.ReindexOne(context.Background(), note))
	assert.NotEmpty(t, idx.GetByNote("a"))

	// Single-note reindex never deletes unrelated notes.
	assert.NotEmpty(t, idx.GetByNote("b"))
}

func TestReindexOneShrunkNoteRemovesChunks(t *testing.T) {
	idx := store.New()
	ix := newTestIndexer(idx, &mockEmbedder{})

	note := testNote("a", "Alpha", longContent("alpha"))
	require.NoError(t, ix.ReindexOne(context.Background(), note))
	require.NotEmpty(t, idx.GetByNote("a"))

	note.Content = "tiny"
	require.NoError(t, ix.ReindexOne(context.Background(), note))
	assert.Empty(t, idx.GetByNote("a"))
}

func TestReindexOneFailureLeavesOldChunks(t *testing.T) {
	idx := store.New()
	emb := &mockEmbedder{}
	ix := newTestIndexer(idx, emb)

	note := testNote("a", "Alpha", longContent("alpha"))
	require.NoError(t, ix.ReindexOne(context.Background(), note))
	before := idx.GetByNote("a")
	require.NotEmpty(t, before)

	emb.fail = true
	note.Content = longContent("changed")
	err := ix.ReindexOne(context.Background(), note)
	require.Error(t, err)

	// The atomic-replace invariant holds on failure: the prior chunk
	// set is still fully visible.
	assert.Equal(t, before, idx.GetByNote("a"))
}
