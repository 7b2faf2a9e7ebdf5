package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(100, 20)
	assert.Empty(t, s.Split(""))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("a short note")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short note", chunks[0])
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(40, 10)
	text := strings.Repeat("the quick brown fox jumps over dogs. ", 20)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 40, "chunk %q", c)
	}
}

func TestSplitParagraphsPreferred(t *testing.T) {
	s := NewSplitter(20, 0)
	chunks := s.Split("first paragraph\n\nsecond one")
	assert.Equal(t, []string{"first paragraph", "second one"}, chunks)
}

func TestSplitOverlapSharedText(t *testing.T) {
	s := NewSplitter(30, 15)
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks overlap: each chunk opens with words retained
	// from the tail of the previous one.
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i])[0]
		assert.Contains(t, chunks[i-1], first,
			"chunk %d %q does not overlap with %q", i, chunks[i], chunks[i-1])
	}
}

func TestSplitUnsplittableUnitEmittedVerbatim(t *testing.T) {
	// A single "word" longer than the chunk size with no separators left
	// below the word level splits character-wise, but when the separator
	// list is exhausted the piece is emitted verbatim.
	s := &Splitter{ChunkSize: 10, ChunkOverlap: 0, Separators: []string{" "}}
	long := strings.Repeat("x", 25)
	chunks := s.Split("tiny " + long)
	assert.Contains(t, chunks, long)
}

func TestSplitCharacterFallback(t *testing.T) {
	// With the default hierarchy an unbroken run falls through to the
	// character separator and still honors the chunk size.
	s := NewSplitter(10, 2)
	chunks := s.Split(strings.Repeat("x", 25))
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
	assert.Equal(t, 10, len(chunks[0]))
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(50, 10)
	text := "one two three\n\nfour five six seven eight nine ten eleven twelve"
	assert.Equal(t, s.Split(text), s.Split(text))
}

func TestSplitDropsEmptyPieces(t *testing.T) {
	s := NewSplitter(20, 0)
	chunks := s.Split("a\n\n\n\nb")
	assert.Equal(t, []string{"a\n\nb"}, chunks)
}
