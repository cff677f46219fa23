package usecase

import (
	"context"
	"errors"
	"testing"

	"sapirag/internal/core/domain"
)

type rerankerFake struct {
	calls  int
	query  string
	scores []float64
	err    error
}

func (f *rerankerFake) Score(_ context.Context, query string, passages []string) ([]float64, error) {
	f.calls++
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	if f.scores != nil {
		return f.scores, nil
	}
	out := make([]float64, len(passages))
	for i := range out {
		out[i] = float64(len(passages) - i)
	}
	return out, nil
}

func candidate(header, body string, score float64) domain.Candidate {
	return domain.Candidate{Header: header, Body: body, Score: score}
}

func TestFuseDeduplicatesSharedCandidates(t *testing.T) {
	reranker := &rerankerFake{}
	fuser := NewFuser(reranker)

	lexical := []domain.Candidate{candidate("A", "alpha", 0.4), candidate("B", "beta", 0.3)}
	vector := []domain.Candidate{candidate("B", "beta", 0.9), candidate("C", "gamma", 0.8)}

	fused, err := fuser.Fuse(context.Background(), "q", lexical, vector, 10)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if len(fused) != 3 {
		t.Fatalf("expected 3 deduplicated results, got %d", len(fused))
	}
	seen := map[string]int{}
	for _, r := range fused {
		seen[r.Header]++
	}
	if seen["B"] != 1 {
		t.Fatalf("expected shared candidate B exactly once, got %d", seen["B"])
	}
}

func TestFuseMergeKeepsHigherScoreOnCollision(t *testing.T) {
	lexical := []domain.Candidate{candidate("B", "beta", 0.3)}
	vector := []domain.Candidate{candidate("B", "beta", 0.9)}

	merged := mergeCandidates(lexical, vector)
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(merged))
	}
	if merged[0].Score != 0.9 {
		t.Fatalf("expected collision to keep higher score 0.9, got %v", merged[0].Score)
	}

	// Same result with the merge order reversed.
	merged = mergeCandidates(vector, lexical)
	if merged[0].Score != 0.9 {
		t.Fatalf("merge must be order independent, got score %v", merged[0].Score)
	}
}

func TestFuseOrdersByRerankScoreDescending(t *testing.T) {
	reranker := &rerankerFake{scores: []float64{0.2, 0.9, 0.5}}
	fuser := NewFuser(reranker)

	lexical := []domain.Candidate{candidate("A", "a", 3), candidate("B", "b", 2), candidate("C", "c", 1)}

	fused, err := fuser.Fuse(context.Background(), "q", lexical, nil, 10)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	for i := 1; i < len(fused); i++ {
		if fused[i-1].Score < fused[i].Score {
			t.Fatalf("results not sorted descending at %d: %v < %v", i, fused[i-1].Score, fused[i].Score)
		}
	}
	if fused[0].Header != "B" {
		t.Fatalf("expected B first (rerank score 0.9), got %s", fused[0].Header)
	}
	if fused[0].Score != 0.9 {
		t.Fatalf("fused score must come from the cross-encoder, got %v", fused[0].Score)
	}
}

func TestFuseEmptyInputSkipsCrossEncoder(t *testing.T) {
	reranker := &rerankerFake{}
	fuser := NewFuser(reranker)

	fused, err := fuser.Fuse(context.Background(), "q", nil, nil, 5)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if len(fused) != 0 {
		t.Fatalf("expected empty result, got %d", len(fused))
	}
	if reranker.calls != 0 {
		t.Fatalf("cross-encoder must not be called with an empty batch, got %d calls", reranker.calls)
	}
}

func TestFuseTruncatesToTopK(t *testing.T) {
	fuser := NewFuser(&rerankerFake{})

	lexical := []domain.Candidate{
		candidate("A", "a", 1), candidate("B", "b", 1), candidate("C", "c", 1),
	}
	fused, err := fuser.Fuse(context.Background(), "q", lexical, nil, 2)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if len(fused) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(fused))
	}

	// topK larger than the candidate count returns everything.
	fused, err = fuser.Fuse(context.Background(), "q", lexical, nil, 50)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if len(fused) != 3 {
		t.Fatalf("expected all 3 candidates, got %d", len(fused))
	}
}

func TestFusePropagatesRerankError(t *testing.T) {
	fuser := NewFuser(&rerankerFake{err: errors.New("reranker down")})
	_, err := fuser.Fuse(context.Background(), "q", []domain.Candidate{candidate("A", "a", 1)}, nil, 5)
	if err == nil {
		t.Fatalf("expected error")
	}
}
