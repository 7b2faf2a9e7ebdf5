// Package backend talks to the local Ollama service for embeddings and
// chat completions. It is the only component that performs network I/O.
package backend

import "context"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProgressFunc reports batch embedding progress as (completed, total).
type ProgressFunc func(completed, total int)

// TokenFunc receives incremental chat tokens during streaming.
type TokenFunc func(token string)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts with bounded concurrency, preserving input
	// order in the output. onProgress may be nil.
	EmbedBatch(ctx context.Context, texts []string, onProgress ProgressFunc) ([][]float32, error)

	// ModelName returns the embedding model identifier.
	ModelName() string
}

// Chatter answers chat completions. A nil onToken yields a blocking
// completion; a non-nil onToken streams tokens as they arrive. Either
// way the full answer is returned.
type Chatter interface {
	Chat(ctx context.Context, messages []Message, onToken TokenFunc) (string, error)
}

// Backend is the full embedding/chat service surface.
type Backend interface {
	Embedder
	Chatter

	// Available probes service liveness.
	Available(ctx context.Context) bool
}

// Ollama wire types.

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}
