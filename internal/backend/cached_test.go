package backend

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder counts backend calls.
type countingEmbedder struct {
	calls atomic.Int32
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, _ ProgressFunc) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, _ := c.Embed(ctx, t)
		out[i] = vec
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestCachedEmbedHitsCache(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	v1, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedEmbedBatchOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	_, err := c.Embed(context.Background(), "aa")
	require.NoError(t, err)

	vecs, err := c.EmbedBatch(context.Background(), []string{"aa", "bbb", "aa"}, nil)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2}, vecs[0])
	assert.Equal(t, []float32{3}, vecs[1])
	assert.Equal(t, []float32{2}, vecs[2])

	// "aa" was cached; only "bbb" hit the backend.
	assert.Equal(t, int32(2), inner.calls.Load())
}
