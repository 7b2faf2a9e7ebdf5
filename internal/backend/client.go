package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solvheim/munin/internal/apperr"
)

const (
	// DefaultEmbedConcurrency bounds in-flight embedding requests during
	// a batch. Ollama serializes model execution anyway; a small fan-out
	// keeps the request pipeline full without queue blowup.
	DefaultEmbedConcurrency = 3

	connectTimeout = 5 * time.Second
)

// Client is an Ollama HTTP client implementing Backend.
type Client struct {
	host        string
	embedModel  string
	chatModel   string
	concurrency int
	http        *http.Client
}

var _ Backend = (*Client)(nil)

// Config configures the Ollama client.
type Config struct {
	Host           string
	EmbeddingModel string
	ChatModel      string
	Concurrency    int
}

// NewClient creates an Ollama client. No connection is made until the
// first call; use Available to probe liveness.
func NewClient(cfg Config) *Client {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultEmbedConcurrency
	}
	return &Client{
		host:        strings.TrimRight(cfg.Host, "/"),
		embedModel:  cfg.EmbeddingModel,
		chatModel:   cfg.ChatModel,
		concurrency: cfg.Concurrency,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: cfg.Concurrency + 1,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// ModelName returns the embedding model identifier.
func (c *Client) ModelName() string {
	return c.embedModel
}

// Embed generates the embedding for a single text. Whitespace-only input
// is rejected as invalid without a network call.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidInput("cannot embed empty text")
	}

	body, err := c.post(ctx, "/api/embed", embedRequest{Model: c.embedModel, Input: text})
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	var result embedResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, apperr.BackendBadResponse("decoding embed response", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, apperr.BackendBadResponse("backend returned no embedding", nil)
	}
	return result.Embeddings[0], nil
}

// EmbedBatch embeds texts as a bounded-concurrency fan-out over Embed.
// Results are assembled positionally: output[i] is always the embedding
// of texts[i], regardless of completion order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, onProgress ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := c.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embedding text %d: %w", i, err)
			}
			results[i] = vec

			mu.Lock()
			done++
			if onProgress != nil {
				onProgress(done, len(texts))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Chat answers a chat completion. With a nil onToken the blocking
// endpoint is used; otherwise the response is streamed and each token is
// delivered to onToken as it arrives. The full answer is returned in
// both cases.
func (c *Client) Chat(ctx context.Context, messages []Message, onToken TokenFunc) (string, error) {
	stream := onToken != nil
	body, err := c.post(ctx, "/api/chat", chatRequest{
		Model:    c.chatModel,
		Messages: messages,
		Stream:   stream,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	if !stream {
		var result chatResponse
		if err := json.NewDecoder(body).Decode(&result); err != nil {
			return "", apperr.BackendBadResponse("decoding chat response", err)
		}
		return result.Message.Content, nil
	}
	return readChatStream(body, onToken)
}

// readChatStream consumes newline-delimited JSON fragments. Malformed
// lines are skipped; an unterminated trailing line is folded back into
// the next read so fragments split across reads still parse.
func readChatStream(r io.Reader, onToken TokenFunc) (string, error) {
	var answer strings.Builder
	var pending string
	buf := make([]byte, 4096)

	handleLine := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		var frag chatResponse
		if err := json.Unmarshal([]byte(line), &frag); err != nil {
			slog.Debug("skipping malformed stream line", slog.String("line", line))
			return
		}
		if frag.Message.Content != "" {
			answer.WriteString(frag.Message.Content)
			onToken(frag.Message.Content)
		}
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending += string(buf[:n])
			lines := strings.Split(pending, "\n")
			pending = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				handleLine(line)
			}
		}
		if err == io.EOF {
			handleLine(pending)
			return answer.String(), nil
		}
		if err != nil {
			return "", apperr.BackendUnavailable("reading chat stream", err)
		}
	}
}

// Available probes the Ollama service.
func (c *Client) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// post issues a JSON POST and returns the response body on 2xx. Network
// failures map to BackendUnavailable, non-success statuses to
// BackendBadResponse.
func (c *Client) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.BackendUnavailable(fmt.Sprintf("POST %s", path), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, apperr.BackendBadResponse(
			fmt.Sprintf("POST %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}
	return resp.Body, nil
}
