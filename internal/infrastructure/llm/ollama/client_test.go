package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sapirag/internal/infrastructure/resilience"
)

func testClient(baseURL string) *Client {
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(Options{
		BaseURL:     baseURL,
		GenModel:    "gen",
		EmbedModel:  "embed",
		Temperature: 0.1,
		MaxTokens:   512,
	}, exec)
}

func TestGenerateSendsSamplingParameters(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"  A felmondás írásban érvényes.  "}`))
	}))
	defer server.Close()

	gen := NewGenerator(testClient(server.URL))
	answer, err := gen.Generate(context.Background(), "Mi a szabály?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "A felmondás írásban érvényes." {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}
	if captured["model"] != "gen" || captured["prompt"] != "Mi a szabály?" {
		t.Fatalf("unexpected payload: %v", captured)
	}
	if captured["temperature"] != 0.1 || captured["max_tokens"] != float64(512) {
		t.Fatalf("sampling parameters missing: %v", captured)
	}
	if captured["stream"] != false {
		t.Fatalf("streaming must be disabled: %v", captured)
	}
}

func TestEmbedReturnsVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(testClient(server.URL))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[0][1] != 0.2 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusNotFound)
	}))
	defer server.Close()

	embedder := NewEmbedder(testClient(server.URL))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestGenerateRetriesRetryableStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer server.Close()

	gen := NewGenerator(testClient(server.URL))
	answer, err := gen.Generate(context.Background(), "kérdés")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "ok" || attempts != 2 {
		t.Fatalf("expected one retry then success, answer=%q attempts=%d", answer, attempts)
	}
}
