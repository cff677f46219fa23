package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMode       = errors.New("invalid search mode")
	ErrMissingScope      = errors.New("missing search scope")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrEmbedding         = errors.New("embedding failure")
	ErrIndexQuery        = errors.New("index query failure")
	ErrGenerationBackend = errors.New("generation backend failure")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

func errInvalidModeValue(raw string) error {
	return fmt.Errorf("mode %q not in {keyword, embedding, hybrid}", raw)
}
