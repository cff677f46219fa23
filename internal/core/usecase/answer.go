package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

const (
	// contextTokenBudget caps the prompt context, measured in tokenizer
	// units (cl100k_base).
	contextTokenBudget = 3000

	// maxContextChunks bounds how many retrieved chunks feed the prompt,
	// applied after the per-mode score filter.
	maxContextChunks = 4

	fallbackAnswer = "Nem található"
)

// AnswerUseCase drives one RAG request: validate, retrieve, filter,
// assemble the prompt, generate.
type AnswerUseCase struct {
	search    ports.SearchService
	generator ports.Generator
	counter   ports.TokenCounter
	timeout   time.Duration
}

func NewAnswerUseCase(search ports.SearchService, generator ports.Generator, counter ports.TokenCounter, timeout time.Duration) *AnswerUseCase {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnswerUseCase{
		search:    search,
		generator: generator,
		counter:   counter,
		timeout:   timeout,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.Answer, error) {
	mode, err := domain.ParseSearchMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if req.Scope.IsZero() {
		return nil, domain.WrapError(domain.ErrMissingScope, "answer", errors.New("filename or workspace required"))
	}

	ranked, err := uc.search.Search(ctx, mode, req.Question, req.Scope, req.TopK)
	if err != nil {
		return nil, err
	}

	filtered := postFilter(mode, ranked, req.ScoreThreshold)
	prompt := buildPrompt(req.Question, AssembleContext(filtered, contextTokenBudget, uc.counter, true))

	genCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	text, err := uc.generator.Generate(genCtx, prompt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGenerationBackend, "generate answer", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = fallbackAnswer
	}

	headers := make([]string, len(filtered))
	citations := make([]string, len(filtered))
	for i, r := range filtered {
		headers[i] = r.Header
		citations[i] = "[" + r.Header + "]"
	}

	return &domain.Answer{
		Text:       text,
		Citations:  citations,
		UsedChunks: headers,
	}, nil
}

// postFilter applies the per-mode policy table: embedding-mode scores are
// cosine similarities with an absolute scale, so they are thresholdable;
// lexical ranks and cross-encoder logits are not, so keyword and hybrid
// results are only truncated.
func postFilter(mode domain.SearchMode, ranked []domain.RankedResult, threshold float64) []domain.RankedResult {
	if mode == domain.ModeEmbedding {
		kept := make([]domain.RankedResult, 0, len(ranked))
		for _, r := range ranked {
			if r.Score >= threshold {
				kept = append(kept, r)
			}
		}
		ranked = kept
	}
	if len(ranked) > maxContextChunks {
		ranked = ranked[:maxContextChunks]
	}
	return ranked
}

func buildPrompt(question, context string) string {
	return fmt.Sprintf(
		"Válaszolj a kérdésre az alábbi KONtextus alapján. "+
			"Ha nincs válasz, írd azt, hogy 'Nem található'.\n\n"+
			"KONtextus:\n%s\n\n"+
			"Kérdés: %s\nVálasz:",
		context, question,
	)
}
