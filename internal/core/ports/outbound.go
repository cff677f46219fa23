package ports

import (
	"context"
	"io"

	"sapirag/internal/core/domain"
)

// ChunkStore persists chunks and serves the lexical and vector queries the
// retrieval engine is built on.
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error
	CountByFile(ctx context.Context, workspace, filename string) (int, error)
	DeleteByFile(ctx context.Context, workspace, filename string) error
	DeleteByWorkspace(ctx context.Context, workspace string) error

	// SearchLexical runs conjunctive prefix full-text matching and returns
	// candidates ordered by rank descending. An empty query (no word terms)
	// yields an empty result without touching storage.
	SearchLexical(ctx context.Context, query string, scope domain.Scope, topK int) ([]domain.Candidate, error)

	// SearchVector runs cosine-similarity search with score 1 - distance,
	// ordered descending.
	SearchVector(ctx context.Context, embedding []float32, scope domain.Scope, topK int) ([]domain.Candidate, error)
}

// ObjectStorage is the bucket-per-workspace store holding source PDFs.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context, workspace string) (created bool, err error)
	BucketExists(ctx context.Context, workspace string) (bool, error)
	ListBuckets(ctx context.Context) ([]string, error)
	// RemoveBucket deletes the bucket with all contained objects.
	RemoveBucket(ctx context.Context, workspace string) error

	Put(ctx context.Context, workspace, object string, data io.Reader, size int64, contentType string) error
	Get(ctx context.Context, workspace, object string) (io.ReadCloser, error)
	// ListObjects returns object names with the given suffix (case-folded).
	ListObjects(ctx context.Context, workspace, suffix string) ([]string, error)
	Remove(ctx context.Context, workspace, object string) error
}

// MessageQueue carries ingestion jobs from the API to the worker.
type MessageQueue interface {
	PublishChunkJob(ctx context.Context, job domain.ChunkJob) error
	SubscribeChunkJobs(ctx context.Context, handler func(context.Context, domain.ChunkJob) error) error
}

// SectionExtractor turns a raw PDF into ordered header/body sections.
type SectionExtractor interface {
	Extract(ctx context.Context, pdfData []byte) ([]domain.Section, error)
}

// Chunker splits an oversized section body into bounded overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// Embedder maps text to fixed-length normalized vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores (query, passage) pairs with a cross-encoder, one score per
// passage in input order.
type Reranker interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Generator produces the final natural-language answer from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TokenCounter measures text in LLM tokenizer units for context budgeting.
type TokenCounter interface {
	Count(text string) int
}
