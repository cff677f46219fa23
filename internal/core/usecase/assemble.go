package usecase

import (
	"strings"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

// AssembleContext concatenates ranked snippets in order until adding the
// next one would push the token count over the budget. The over-budget
// snippet is dropped, not truncated, and nothing after it is considered:
// the output is always a strict prefix of the ranked sequence and its token
// count never exceeds budget.
func AssembleContext(ranked []domain.RankedResult, budget int, counter ports.TokenCounter, labelWithHeader bool) string {
	var b strings.Builder
	for _, r := range ranked {
		snippet := formatSnippet(r, labelWithHeader)
		if counter.Count(b.String()+snippet) > budget {
			break
		}
		b.WriteString(snippet)
	}
	return b.String()
}

func formatSnippet(r domain.RankedResult, labelWithHeader bool) string {
	if labelWithHeader {
		return "[" + r.Header + "] " + r.Body + "\n\n"
	}
	return r.Body + "\n\n"
}
