package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/solvheim/munin/internal/apperr"
	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/store"
)

const uniqueSystemPrompt = `You are an assistant checking the user's personal note vault for redundancy.
Given an idea and existing notes that cover similar ground, summarize the overlap:
which notes already say this, what they add, and whether the idea still brings
anything new. Cite the notes by their titles.`

// CheckUnique tests whether an idea is already covered by the vault.
// When the input names an existing note its stored embedding is reused;
// otherwise the text is embedded fresh. Matches use the stricter
// redundancy threshold, and a clean miss answers without a chat call.
func (e *Engine) CheckUnique(ctx context.Context, input string, onToken backend.TokenFunc) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{}, apperr.InvalidInput("nothing to check")
	}

	var (
		vec     []float32
		exclude map[string]struct{}
	)
	if chunks := e.index.GetByTitle(input); len(chunks) > 0 {
		vec = chunks[0].Embedding
		exclude = map[string]struct{}{chunks[0].Metadata.NoteID: {}}
	} else {
		fresh, err := e.embedder.Embed(ctx, input)
		if err != nil {
			return Result{}, fmt.Errorf("embedding text: %w", err)
		}
		vec = fresh
	}

	hits := e.index.Search(vec, e.cfg.TopK+e.cfg.OverfetchMargin, store.SearchOptions{
		ExcludeNoteIDs: exclude,
	})
	hits = filterThreshold(hits, e.cfg.RedundancyThreshold)
	hits = dedupByTitle(hits)
	if len(hits) > e.cfg.TopK {
		hits = hits[:e.cfg.TopK]
	}
	if len(hits) == 0 {
		return Result{Answer: answerUnique}, nil
	}

	prompt := fmt.Sprintf("Idea:\n\n%s\n\nNotes covering similar ground:\n\n%s",
		input, formatHits(hits))
	answer, err := e.chat.Chat(ctx, []backend.Message{
		{Role: "system", Content: uniqueSystemPrompt},
		{Role: "user", Content: prompt},
	}, onToken)
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}

	return Result{Answer: answer, Sources: toSources(hits)}, nil
}
