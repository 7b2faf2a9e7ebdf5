package query

import (
	"context"
	"fmt"

	"github.com/solvheim/munin/internal/apperr"
	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/store"
)

const backlinksSystemPrompt = `You are an assistant mapping connections inside the user's personal note vault.
Given a note and excerpts from every note that links to it, explain how the note is referenced:
what role it plays for each linking note and what themes the backlinks share.
Cite the linking notes by their titles.`

// Backlinks aggregates every chunk from notes that link to the target
// (by title or alias) and has the chat model synthesize how the target
// is referenced across the vault.
func (e *Engine) Backlinks(ctx context.Context, title string, onToken backend.TokenFunc) (Result, error) {
	chunks := e.index.GetByTitle(title)
	if len(chunks) == 0 {
		return Result{}, apperr.NoteNotFound(title)
	}
	anchor := chunks[0]

	linking := e.index.GetLinksTo(title, anchor.Metadata.AliasList())
	if len(linking) == 0 {
		return Result{Answer: answerNoBacklinks}, nil
	}

	note, err := e.notes.ByTitle(ctx, title)
	if err != nil {
		return Result{}, fmt.Errorf("loading note %q: %w", title, err)
	}
	if note == nil {
		// Indexed but gone from the vault; the index is stale.
		return Result{}, apperr.NoteNotFound(title)
	}

	hits := make([]store.Hit, len(linking))
	for i, c := range linking {
		hits[i] = store.Hit{Chunk: c}
	}

	prompt := fmt.Sprintf("Note %q:\n\n%s\n\nNotes linking to it:\n\n%s",
		title, note.Content, formatHits(hits))
	answer, err := e.chat.Chat(ctx, []backend.Message{
		{Role: "system", Content: backlinksSystemPrompt},
		{Role: "user", Content: prompt},
	}, onToken)
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}

	return Result{Answer: answer, Sources: toSources(dedupByTitle(hits))}, nil
}
