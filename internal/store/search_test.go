package store

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestCosineZeroVector(t *testing.T) {
	sim := Cosine([]float32{0, 0}, []float32{1, 0})
	assert.Equal(t, 0.0, sim)
	assert.False(t, math.IsNaN(sim))
}

func TestSearchRanking(t *testing.T) {
	// Three notes A, B, C with embeddings [1,0], [0,1], [0.9,0.1]:
	// querying [1,0] with topK=2 returns A then C.
	idx := New()
	idx.Upsert("a", makeChunks("a", "A", []float32{1, 0}))
	idx.Upsert("b", makeChunks("b", "B", []float32{0, 1}))
	idx.Upsert("c", makeChunks("c", "C", []float32{0.9, 0.1}))

	hits := idx.Search([]float32{1, 0}, 2, SearchOptions{})
	require.Len(t, hits, 2)
	assert.Equal(t, "A", hits[0].Chunk.Metadata.Title)
	assert.Equal(t, "C", hits[1].Chunk.Metadata.Title)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.InDelta(t, 0.994, hits[1].Similarity, 0.001)
}

func TestSearchExclusion(t *testing.T) {
	idx := New()
	idx.Upsert("a", makeChunks("a", "A", []float32{1, 0}))
	idx.Upsert("b", makeChunks("b", "B", []float32{0.9, 0.1}))

	hits := idx.Search([]float32{1, 0}, 5, SearchOptions{
		ExcludeNoteIDs: map[string]struct{}{"a": {}},
	})
	require.Len(t, hits, 1)
	assert.Equal(t, "B", hits[0].Chunk.Metadata.Title)
}

func TestSearchRequiredTags(t *testing.T) {
	idx := New()
	tagged := makeChunks("a", "A", []float32{1, 0})
	tagged[0].Metadata.Tags = JoinList([]string{"work", "project"})
	idx.Upsert("a", tagged)

	untagged := makeChunks("b", "B", []float32{1, 0})
	idx.Upsert("b", untagged)

	hits := idx.Search([]float32{1, 0}, 5, SearchOptions{
		RequiredTags: map[string]struct{}{"work": {}},
	})
	require.Len(t, hits, 1)
	assert.Equal(t, "A", hits[0].Chunk.Metadata.Title)
}

func TestSearchReturnsMinOfTopKAndEligible(t *testing.T) {
	idx := New()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("n%d", i)
		idx.Upsert(id, makeChunks(id, fmt.Sprintf("N%d", i), []float32{1, float32(i)}))
	}

	assert.Len(t, idx.Search([]float32{1, 0}, 2, SearchOptions{}), 2)
	assert.Len(t, idx.Search([]float32{1, 0}, 10, SearchOptions{}), 3)
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	// Identical embeddings score identically; ties resolve by chunk id.
	idx := New()
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("n%d", i)
		idx.Upsert(id, makeChunks(id, fmt.Sprintf("N%d", i), []float32{1, 0}))
	}

	first := idx.Search([]float32{1, 0}, 3, SearchOptions{})
	for trial := 0; trial < 10; trial++ {
		again := idx.Search([]float32{1, 0}, 3, SearchOptions{})
		require.Len(t, again, 3)
		for i := range first {
			assert.Equal(t, first[i].Chunk.ID, again[i].Chunk.ID, "trial %d position %d", trial, i)
		}
	}
	// With equal scores the lowest ids win.
	assert.Equal(t, ChunkID("n0", 0), first[0].Chunk.ID)
	assert.Equal(t, ChunkID("n1", 0), first[1].Chunk.ID)
	assert.Equal(t, ChunkID("n2", 0), first[2].Chunk.ID)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New()
	assert.Empty(t, idx.Search([]float32{1, 0}, 5, SearchOptions{}))
}

func TestSearchZeroTopK(t *testing.T) {
	idx := New()
	idx.Upsert("a", makeChunks("a", "A", []float32{1, 0}))
	assert.Empty(t, idx.Search([]float32{1, 0}, 0, SearchOptions{}))
}
