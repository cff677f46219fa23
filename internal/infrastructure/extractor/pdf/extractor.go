package pdf

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"sapirag/internal/core/domain"
)

// sectionHeader matches numbered statute paragraphs such as "12. § Title"
// on their own line. Text before the first header is discarded.
var sectionHeader = regexp.MustCompile(`\n\s*(\d+\.? ?§.*?)\n`)

// Extractor pulls plain text out of a PDF and splits it into
// header/body sections along statute paragraph markers.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, raw []byte) ([]domain.Section, error) {
	rdr, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}

	plain, err := rdr.GetPlainText()
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pdf text", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read pdf text", err)
	}

	return SplitSections(string(text)), nil
}

// SplitSections cuts the text at every section header. Each section's body
// runs until the next header or the end of the text. Returns nil when no
// header is present.
func SplitSections(text string) []domain.Section {
	matches := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]domain.Section, 0, len(matches))
	for i, m := range matches {
		header := strings.TrimSpace(text[m[2]:m[3]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		sections = append(sections, domain.Section{Header: header, Body: body})
	}
	return sections
}
