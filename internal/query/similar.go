package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/solvheim/munin/internal/apperr"
	"github.com/solvheim/munin/internal/store"
)

// SimilarOptions narrow similar-notes retrieval.
type SimilarOptions struct {
	// ExcludeLinked drops notes already connected to the target in
	// either link direction, leaving only undiscovered neighbors.
	ExcludeLinked bool
}

// Similar finds the notes semantically closest to an existing note. The
// target's stored first-chunk embedding serves as the query vector, so
// no backend call is made. The search over-fetches to absorb exclusion
// and dedup losses before truncating to top-K.
func (e *Engine) Similar(ctx context.Context, title string, opts SimilarOptions) (Result, error) {
	_ = ctx

	chunks := e.index.GetByTitle(title)
	if len(chunks) == 0 {
		return Result{}, apperr.NoteNotFound(title)
	}
	anchor := chunks[0]

	exclude := map[string]struct{}{anchor.Metadata.NoteID: {}}
	if opts.ExcludeLinked {
		for id := range e.linkedNoteIDs(anchor) {
			exclude[id] = struct{}{}
		}
	}

	hits := e.index.Search(anchor.Embedding, e.cfg.TopK+e.cfg.OverfetchMargin, store.SearchOptions{
		ExcludeNoteIDs: exclude,
	})
	hits = dedupByTitle(hits)
	if len(hits) > e.cfg.TopK {
		hits = hits[:e.cfg.TopK]
	}
	if len(hits) == 0 {
		return Result{Answer: answerNoSimilar}, nil
	}

	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s (%.2f)\n", h.Chunk.Metadata.Title, h.Similarity)
	}
	return Result{
		Answer:  strings.TrimRight(b.String(), "\n"),
		Sources: toSources(hits),
	}, nil
}
