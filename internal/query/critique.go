package query

import (
	"context"
	"fmt"

	"github.com/solvheim/munin/internal/apperr"
	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/store"
)

const critiqueSystemPrompt = `You are a thoughtful devil's advocate reviewing a note from the user's personal vault.
Challenge the note's claims and assumptions, drawing counterpoints from the related notes provided.
Cite the notes you use by their titles. Be direct but constructive.`

// Critique has the chat model argue against a note, using its
// semantically closest neighbors (excluding the note itself and below-
// threshold matches) as ammunition. Requires the full note text, loaded
// through the note source.
func (e *Engine) Critique(ctx context.Context, title string, onToken backend.TokenFunc) (Result, error) {
	chunks := e.index.GetByTitle(title)
	if len(chunks) == 0 {
		return Result{}, apperr.NoteNotFound(title)
	}
	anchor := chunks[0]

	note, err := e.notes.ByTitle(ctx, title)
	if err != nil {
		return Result{}, fmt.Errorf("loading note %q: %w", title, err)
	}
	if note == nil {
		// Indexed but gone from the vault; the index is stale.
		return Result{}, apperr.NoteNotFound(title)
	}

	hits := e.index.Search(anchor.Embedding, e.cfg.TopK, store.SearchOptions{
		ExcludeNoteIDs: map[string]struct{}{anchor.Metadata.NoteID: {}},
	})
	hits = filterThreshold(hits, e.cfg.SimilarityThreshold)
	if len(hits) == 0 {
		return Result{Answer: answerNoSimilar}, nil
	}

	prompt := fmt.Sprintf("Note %q:\n\n%s\n\nRelated notes:\n\n%s",
		title, note.Content, formatHits(hits))
	answer, err := e.chat.Chat(ctx, []backend.Message{
		{Role: "system", Content: critiqueSystemPrompt},
		{Role: "user", Content: prompt},
	}, onToken)
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}

	return Result{Answer: answer, Sources: toSources(dedupByTitle(hits))}, nil
}
