package chunking

import (
	"strings"
	"unicode"
)

// Splitter cuts oversized section bodies into overlapping rune windows.
// Window ends snap back to the nearest whitespace so words stay intact,
// unless no break exists in the second half of the window.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
				out = append(out, tail)
			}
			break
		}

		cut := end
		for i := end; i > start+s.ChunkSize/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:cut])); chunk != "" {
			out = append(out, chunk)
		}

		next := cut - s.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return out
}
