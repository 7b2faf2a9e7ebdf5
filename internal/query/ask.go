package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/solvheim/munin/internal/apperr"
	"github.com/solvheim/munin/internal/backend"
	"github.com/solvheim/munin/internal/store"
)

const askSystemPrompt = `You are an assistant answering questions about the user's personal notes.
Answer using only the provided context. Cite the notes you draw on by their titles.
If the context does not contain the answer, say so plainly instead of guessing.`

// AskOptions narrow plain retrieval.
type AskOptions struct {
	// RequiredTags keeps only chunks carrying at least one of these tags.
	RequiredTags []string
}

// Ask runs plain retrieval: embed the question, gather the closest
// chunks above the similarity threshold, and have the chat model answer
// from that context alone. onToken may be nil for a blocking answer.
func (e *Engine) Ask(ctx context.Context, question string, opts AskOptions, onToken backend.TokenFunc) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, apperr.InvalidInput("question is empty")
	}

	vec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return Result{}, fmt.Errorf("embedding question: %w", err)
	}

	hits := e.index.Search(vec, e.cfg.TopK, store.SearchOptions{
		RequiredTags: toSet(opts.RequiredTags),
	})
	hits = filterThreshold(hits, e.cfg.SimilarityThreshold)
	if len(hits) == 0 {
		return Result{Answer: answerNoInformation}, nil
	}

	prompt := fmt.Sprintf("Context:\n\n%s\n\nQuestion: %s", formatHits(hits), question)
	answer, err := e.chat.Chat(ctx, []backend.Message{
		{Role: "system", Content: askSystemPrompt},
		{Role: "user", Content: prompt},
	}, onToken)
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}

	return Result{Answer: answer, Sources: toSources(dedupByTitle(hits))}, nil
}
