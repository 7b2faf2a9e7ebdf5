package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solvheim/munin/internal/indexer"
	"github.com/solvheim/munin/internal/query"
)

func TestBufferIsNotTTY(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
	assert.False(t, NewPrinter(&buf).Streaming())
}

func TestAnswerAndSourcesPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Answer("The answer.")
	p.Sources([]query.SourceInfo{
		{Title: "Stoicism", Location: "philosophy/stoicism.md"},
		{Title: "Untracked"},
	})

	out := buf.String()
	assert.Contains(t, out, "The answer.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "Stoicism")
	assert.Contains(t, out, "philosophy/stoicism.md")
	assert.NotContains(t, out, "\033[", "pipes get no ANSI escapes")
}

func TestSourcesEmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Sources(nil)
	assert.Empty(t, buf.String())
}

func TestStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Stats(indexer.Stats{New: 3, Updated: 1, Errors: 2}, 42, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "new 3, updated 1")
	assert.Contains(t, out, "42 chunks")
	assert.Contains(t, out, "2 notes failed")
}

func TestProgressQuietOffTTY(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Progress(5, 10)
	assert.Empty(t, buf.String())
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Error(errors.New("backend unreachable"))
	assert.Contains(t, buf.String(), "backend unreachable")
}
