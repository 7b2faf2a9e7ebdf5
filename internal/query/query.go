// Package query composes the retrieval modes on top of the vector
// index: plain retrieval, similar-notes, link-aware critique, backlink
// aggregation, and the redundancy check. Every mode returns an answer
// plus the sources it drew on, and returns a deterministic answer
// without touching the chat backend when nothing qualifies.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/notes"
	"github.com/solvheim/munin/internal/store"
)

// Config carries the retrieval tuning knobs.
type Config struct {
	// TopK is the number of chunks retrieved per search.
	TopK int

	// SimilarityThreshold drops hits scoring below it before formatting.
	SimilarityThreshold float64

	// RedundancyThreshold is the higher bar used by the redundancy check.
	RedundancyThreshold float64

	// OverfetchMargin widens searches that filter afterwards, so that
	// exclusions and dedup do not starve the final result set.
	OverfetchMargin int
}

// SourceInfo identifies one cited note.
type SourceInfo struct {
	Title      string
	Location   string
	Similarity float64
}

// Result is the outcome of any query mode.
type Result struct {
	Answer  string
	Sources []SourceInfo
}

// NoteSource resolves a note title to its full parsed form. The index
// only stores chunked text; modes that present a whole note to the chat
// model load it through this.
type NoteSource interface {
	ByTitle(ctx context.Context, title string) (*notes.Note, error)
}

// Engine runs query modes against one index.
type Engine struct {
	index    *store.Index
	embedder backend.Embedder
	chat     backend.Chatter
	notes    NoteSource
	cfg      Config
}

// New creates a query engine. The embedder is used for free-text
// queries only; modes anchored on an existing note reuse its stored
// vectors.
func New(idx *store.Index, embedder backend.Embedder, chat backend.Chatter, src NoteSource, cfg Config) *Engine {
	return &Engine{
		index:    idx,
		embedder: embedder,
		chat:     chat,
		notes:    src,
		cfg:      cfg,
	}
}

const (
	answerNoInformation = "I could not find anything in your notes about that."
	answerNoSimilar     = "No sufficiently similar notes were found."
	answerNoBacklinks   = "No other notes link to this one."
	answerUnique        = "This appears unique. No existing note covers similar ground."
)

const contextSeparator = "\n\n---\n\n"

// filterThreshold keeps hits at or above the similarity floor.
func filterThreshold(hits []store.Hit, min float64) []store.Hit {
	kept := hits[:0]
	for _, h := range hits {
		if h.Similarity >= min {
			kept = append(kept, h)
		}
	}
	return kept
}

// dedupByTitle keeps the first hit per note title, preserving rank order.
func dedupByTitle(hits []store.Hit) []store.Hit {
	seen := make(map[string]struct{}, len(hits))
	kept := hits[:0]
	for _, h := range hits {
		title := h.Chunk.Metadata.Title
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		kept = append(kept, h)
	}
	return kept
}

// formatHits renders retrieved chunks as the context block handed to
// the chat model.
func formatHits(hits []store.Hit) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		m := h.Chunk.Metadata
		var b strings.Builder
		fmt.Fprintf(&b, "[Source: %s]", m.Title)
		if m.Description != "" {
			b.WriteString(" ")
			b.WriteString(m.Description)
		}
		b.WriteString("\n")
		b.WriteString(h.Chunk.Text)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, contextSeparator)
}

// toSources converts deduplicated hits into citations.
func toSources(hits []store.Hit) []SourceInfo {
	out := make([]SourceInfo, 0, len(hits))
	for _, h := range hits {
		out = append(out, SourceInfo{
			Title:      h.Chunk.Metadata.Title,
			Location:   h.Chunk.Metadata.Location,
			Similarity: h.Similarity,
		})
	}
	return out
}

// linkedNoteIDs returns the ids of notes connected to the anchor note
// in either direction: targets of its outgoing links, and notes whose
// outgoing links name the anchor's title or aliases.
func (e *Engine) linkedNoteIDs(anchor *store.Chunk) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, target := range anchor.Metadata.LinkList() {
		for _, c := range e.index.GetByTitle(target) {
			ids[c.Metadata.NoteID] = struct{}{}
			break
		}
	}
	for _, c := range e.index.GetLinksTo(anchor.Metadata.Title, anchor.Metadata.AliasList()) {
		ids[c.Metadata.NoteID] = struct{}{}
	}
	return ids
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
