package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sapirag/internal/core/domain"
	"sapirag/internal/infrastructure/resilience"
)

// Client scores (query, passage) pairs against a cross-encoder serving
// endpoint. One request scores the whole batch.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	exec       *resilience.Executor
}

type Options struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func New(opts Options, exec *resilience.Executor) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		httpClient: &http.Client{Timeout: timeout},
		exec:       exec,
	}
}

type scoreRequest struct {
	Model    string   `json:"model,omitempty"`
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

func (c *Client) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	payload := scoreRequest{Model: c.model, Query: query, Passages: passages}
	var decoded scoreResponse
	err := c.exec.Execute(ctx, "rerank_score", func(ctx context.Context) error {
		return c.post(ctx, payload, &decoded)
	}, classifyRerankError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "rerank score", err)
	}
	if len(decoded.Scores) != len(passages) {
		return nil, domain.WrapError(domain.ErrIndexQuery, "rerank score",
			fmt.Errorf("got %d scores for %d passages", len(decoded.Scores), len(passages)))
	}
	return decoded.Scores, nil
}

func (c *Client) post(ctx context.Context, payload scoreRequest, out *scoreResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{status: resp.Status, code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rerank response: %w", err)
	}
	return nil
}

type statusError struct {
	status string
	code   int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("rerank status: %s", e.status)
	}
	return fmt.Sprintf("rerank status: %s: %s", e.status, e.body)
}

func classifyRerankError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
