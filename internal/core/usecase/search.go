package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

const defaultTopK = 10

// SearchUseCase dispatches a query to the lexical adapter, the vector
// adapter, or both (hybrid), and returns ranked results.
type SearchUseCase struct {
	store    ports.ChunkStore
	embedder ports.Embedder
	fuser    *Fuser
}

func NewSearchUseCase(store ports.ChunkStore, embedder ports.Embedder, fuser *Fuser) *SearchUseCase {
	return &SearchUseCase{
		store:    store,
		embedder: embedder,
		fuser:    fuser,
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, mode domain.SearchMode, query string, scope domain.Scope, topK int) ([]domain.RankedResult, error) {
	if scope.IsZero() {
		return nil, domain.WrapError(domain.ErrMissingScope, "search", errors.New("filename or workspace required"))
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	switch mode {
	case domain.ModeKeyword:
		candidates, err := uc.searchLexical(ctx, query, scope, topK)
		if err != nil {
			return nil, err
		}
		return asRanked(candidates), nil
	case domain.ModeEmbedding:
		candidates, err := uc.searchVector(ctx, query, scope, topK)
		if err != nil {
			return nil, err
		}
		return asRanked(candidates), nil
	case domain.ModeHybrid:
		return uc.searchHybrid(ctx, query, scope, topK)
	default:
		return nil, domain.WrapError(domain.ErrInvalidMode, "search", errors.New(string(mode)))
	}
}

func (uc *SearchUseCase) searchLexical(ctx context.Context, query string, scope domain.Scope, topK int) ([]domain.Candidate, error) {
	candidates, err := uc.store.SearchLexical(ctx, query, scope, topK)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return candidates, nil
}

func (uc *SearchUseCase) searchVector(ctx context.Context, query string, scope domain.Scope, topK int) ([]domain.Candidate, error) {
	embedding, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", err)
	}
	candidates, err := uc.store.SearchVector(ctx, embedding, scope, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return candidates, nil
}

// searchHybrid runs both read-only searches concurrently, joins them, then
// hands the pair to the fusion engine.
func (uc *SearchUseCase) searchHybrid(ctx context.Context, query string, scope domain.Scope, topK int) ([]domain.RankedResult, error) {
	var lexical, vector []domain.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = uc.searchLexical(gctx, query, scope, topK)
		return err
	})
	g.Go(func() error {
		var err error
		vector, err = uc.searchVector(gctx, query, scope, topK)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return uc.fuser.Fuse(ctx, query, lexical, vector, topK)
}

func asRanked(candidates []domain.Candidate) []domain.RankedResult {
	out := make([]domain.RankedResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RankedResult{Candidate: c}
	}
	return out
}
