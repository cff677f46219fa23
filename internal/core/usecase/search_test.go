package usecase

import (
	"context"
	"errors"
	"testing"

	"sapirag/internal/core/domain"
)

type chunkStoreFake struct {
	lexical      []domain.Candidate
	vector       []domain.Candidate
	lexicalCalls int
	vectorCalls  int
	lexicalTopK  int
	vectorTopK   int
	lexicalErr   error
	vectorErr    error
}

func (f *chunkStoreFake) InsertChunks(context.Context, []domain.Chunk) error { return nil }
func (f *chunkStoreFake) CountByFile(context.Context, string, string) (int, error) {
	return 0, nil
}
func (f *chunkStoreFake) DeleteByFile(context.Context, string, string) error { return nil }
func (f *chunkStoreFake) DeleteByWorkspace(context.Context, string) error    { return nil }

func (f *chunkStoreFake) SearchLexical(_ context.Context, _ string, _ domain.Scope, topK int) ([]domain.Candidate, error) {
	f.lexicalCalls++
	f.lexicalTopK = topK
	return f.lexical, f.lexicalErr
}

func (f *chunkStoreFake) SearchVector(_ context.Context, _ []float32, _ domain.Scope, topK int) ([]domain.Candidate, error) {
	f.vectorCalls++
	f.vectorTopK = topK
	return f.vector, f.vectorErr
}

type embedderFake struct {
	calls int
	err   error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, f.err
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func wsScope() domain.Scope { return domain.Scope{Workspace: "jog"} }

func TestSearchKeywordModeNeverTouchesVectorPath(t *testing.T) {
	store := &chunkStoreFake{lexical: []domain.Candidate{candidate("A", "a", 0.5)}}
	embedder := &embedderFake{}
	reranker := &rerankerFake{}
	uc := NewSearchUseCase(store, embedder, NewFuser(reranker))

	results, err := uc.Search(context.Background(), domain.ModeKeyword, "alma fa", wsScope(), 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if embedder.calls != 0 || store.vectorCalls != 0 {
		t.Fatalf("keyword mode must not touch the vector path: embed=%d vector=%d", embedder.calls, store.vectorCalls)
	}
	if reranker.calls != 0 {
		t.Fatalf("keyword mode must not invoke the cross-encoder")
	}
}

func TestSearchEmbeddingModeNeverTouchesLexicalPath(t *testing.T) {
	store := &chunkStoreFake{vector: []domain.Candidate{candidate("A", "a", 0.9)}}
	reranker := &rerankerFake{}
	uc := NewSearchUseCase(store, &embedderFake{}, NewFuser(reranker))

	_, err := uc.Search(context.Background(), domain.ModeEmbedding, "alma", wsScope(), 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.lexicalCalls != 0 {
		t.Fatalf("embedding mode must not invoke the lexical adapter")
	}
	if reranker.calls != 0 {
		t.Fatalf("embedding mode must not invoke the cross-encoder")
	}
}

func TestSearchHybridJoinsBothAdapters(t *testing.T) {
	store := &chunkStoreFake{
		lexical: []domain.Candidate{candidate("A", "a", 0.4), candidate("B", "b", 0.3)},
		vector:  []domain.Candidate{candidate("B", "b", 0.9), candidate("C", "c", 0.8)},
	}
	uc := NewSearchUseCase(store, &embedderFake{}, NewFuser(&rerankerFake{}))

	results, err := uc.Search(context.Background(), domain.ModeHybrid, "alma", wsScope(), 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.lexicalCalls != 1 || store.vectorCalls != 1 {
		t.Fatalf("hybrid mode must run both adapters: lexical=%d vector=%d", store.lexicalCalls, store.vectorCalls)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 deduplicated results, got %d", len(results))
	}
}

func TestSearchMissingScope(t *testing.T) {
	uc := NewSearchUseCase(&chunkStoreFake{}, &embedderFake{}, NewFuser(&rerankerFake{}))
	_, err := uc.Search(context.Background(), domain.ModeKeyword, "alma", domain.Scope{}, 5)
	if !domain.IsKind(err, domain.ErrMissingScope) {
		t.Fatalf("expected ErrMissingScope, got %v", err)
	}
}

func TestSearchEmbedFailureIsEmbeddingError(t *testing.T) {
	uc := NewSearchUseCase(&chunkStoreFake{}, &embedderFake{err: errors.New("backend down")}, NewFuser(&rerankerFake{}))
	_, err := uc.Search(context.Background(), domain.ModeEmbedding, "alma", wsScope(), 5)
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestSearchDefaultTopK(t *testing.T) {
	store := &chunkStoreFake{}
	uc := NewSearchUseCase(store, &embedderFake{}, NewFuser(&rerankerFake{}))
	if _, err := uc.Search(context.Background(), domain.ModeKeyword, "alma", wsScope(), 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.lexicalTopK != defaultTopK {
		t.Fatalf("expected default top_k=%d, got %d", defaultTopK, store.lexicalTopK)
	}
}
