package usecase

import (
	"context"
	"fmt"
	"sort"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

// Fuser deduplicates lexical and vector candidate lists and re-scores the
// survivors with a cross-encoder so the final ordering uses one metric
// instead of two incomparable ones.
type Fuser struct {
	reranker ports.Reranker
}

func NewFuser(reranker ports.Reranker) *Fuser {
	return &Fuser{reranker: reranker}
}

// Fuse merges the two candidate lists, re-ranks and truncates to topK.
// Both inputs may be nil; an empty merge returns an empty result without
// calling the cross-encoder.
func (f *Fuser) Fuse(ctx context.Context, query string, lexical, vector []domain.Candidate, topK int) ([]domain.RankedResult, error) {
	merged := mergeCandidates(lexical, vector)
	if len(merged) == 0 {
		return nil, nil
	}

	passages := make([]string, len(merged))
	for i, c := range merged {
		passages[i] = c.Header + "\n" + c.Body
	}

	scores, err := f.reranker.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder score: %w", err)
	}
	if len(scores) != len(merged) {
		return nil, fmt.Errorf("cross-encoder score count mismatch: %d scores for %d passages", len(scores), len(merged))
	}

	out := make([]domain.RankedResult, len(merged))
	for i, c := range merged {
		c.Score = scores[i]
		out[i] = domain.RankedResult{Candidate: c}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return trimResults(out, topK), nil
}

// mergeCandidates deduplicates by (header, body, filename). On a key
// collision the higher score survives, which keeps the pre-rerank order
// independent of which list is merged first.
func mergeCandidates(lexical, vector []domain.Candidate) []domain.Candidate {
	type slot struct {
		index int
		score float64
	}
	seen := make(map[domain.CandidateKey]slot, len(lexical)+len(vector))
	merged := make([]domain.Candidate, 0, len(lexical)+len(vector))

	add := func(list []domain.Candidate) {
		for _, c := range list {
			key := c.Key()
			if s, ok := seen[key]; ok {
				if c.Score > s.score {
					merged[s.index].Score = c.Score
					s.score = c.Score
					seen[key] = s
				}
				continue
			}
			seen[key] = slot{index: len(merged), score: c.Score}
			merged = append(merged, c)
		}
	}

	add(lexical)
	add(vector)
	return merged
}

func trimResults(results []domain.RankedResult, limit int) []domain.RankedResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
