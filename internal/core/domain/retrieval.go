package domain

import "strings"

// SearchMode selects the retrieval strategy for a query.
type SearchMode string

const (
	ModeKeyword   SearchMode = "keyword"
	ModeEmbedding SearchMode = "embedding"
	ModeHybrid    SearchMode = "hybrid"
)

// ParseSearchMode normalizes a user-supplied mode string. The empty string
// falls back to embedding search, matching the API default.
func ParseSearchMode(raw string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeKeyword:
		return ModeKeyword, nil
	case ModeEmbedding, "":
		return ModeEmbedding, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", WrapError(ErrInvalidMode, "parse search mode", errInvalidModeValue(raw))
	}
}

// Scope restricts a search to a single file or a whole workspace. When both
// are set the filename wins.
type Scope struct {
	Workspace string
	Filename  string
}

func (s Scope) IsZero() bool {
	return s.Workspace == "" && s.Filename == ""
}

// Candidate is a single retrieval hit. Identity for deduplication is the
// (Header, Body, Filename) triple; the same logical chunk retrieved by both
// the lexical and the vector path must collapse into one candidate.
type Candidate struct {
	Header   string  `json:"header"`
	Body     string  `json:"body"`
	Filename string  `json:"filename,omitempty"`
	Score    float64 `json:"score"`
}

// Key returns the deduplication identity of the candidate.
func (c Candidate) Key() CandidateKey {
	return CandidateKey{Header: c.Header, Body: c.Body, Filename: c.Filename}
}

type CandidateKey struct {
	Header   string
	Body     string
	Filename string
}

// RankedResult is a candidate carrying its final fused or re-ranked score.
type RankedResult struct {
	Candidate
}

// AnswerRequest carries one RAG question through the orchestrator.
type AnswerRequest struct {
	Question       string
	Scope          Scope
	Mode           string
	TopK           int
	ScoreThreshold float64
}

// Answer is the orchestrator output for a RAG request.
type Answer struct {
	Text       string   `json:"answer"`
	Citations  []string `json:"citations"`
	UsedChunks []string `json:"used_chunks"`
}
