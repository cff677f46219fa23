package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sapirag/internal/core/domain"
	"sapirag/internal/infrastructure/resilience"
)

// Client talks to a local Ollama instance. It backs both the embedding
// port and the answer generation port.
type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	exec        *resilience.Executor
}

type Options struct {
	BaseURL     string
	GenModel    string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func New(opts Options, exec *resilience.Executor) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		genModel:    opts.GenModel,
		embedModel:  opts.EmbedModel,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
		exec:        exec,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.exec.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/api/embed", request, &response, "embed")
	}, classifyBackendError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":       g.client.genModel,
		"prompt":      prompt,
		"temperature": g.client.temperature,
		"max_tokens":  g.client.maxTokens,
		"stream":      false,
	}

	var response struct {
		Response string `json:"response"`
	}
	err := g.client.exec.Execute(ctx, "ollama_generate", func(ctx context.Context) error {
		return g.client.postJSON(ctx, "/api/generate", request, &response, "generate")
	}, classifyBackendError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}
