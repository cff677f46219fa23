package domain

import "time"

// Chunk is the persisted unit of indexing: one `§` section of a source PDF.
// Rows are immutable once written; re-ingesting a file appends new rows.
type Chunk struct {
	ID        string
	Workspace string
	Filename  string
	Header    string
	Body      string
	Embedding []float32
	CreatedAt time.Time
}

// Section is a header/body pair produced by the PDF extractor before
// embedding.
type Section struct {
	Header string
	Body   string
}

// EmbedText is the text an embedding is computed over at ingestion time and
// the text the cross-encoder scores at query time. Keeping the two identical
// matters for re-ranking quality.
func (s Section) EmbedText() string {
	return s.Header + "\n" + s.Body
}

// ChunkJob is the queue payload asking the worker to (re)index one file.
type ChunkJob struct {
	Workspace string `json:"workspace"`
	Filename  string `json:"filename"`
}
