package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts prompt tokens with the cl100k_base encoding so the
// context budget lines up with what the generation backends charge.
type Counter struct {
	enc *tiktoken.Tiktoken
}

func NewCounter() (*Counter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &Counter{enc: enc}, nil
}

func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
