package ports

import (
	"context"
	"io"

	"sapirag/internal/core/domain"
)

// SearchService is the inbound contract for keyword/embedding/hybrid search.
type SearchService interface {
	Search(ctx context.Context, mode domain.SearchMode, query string, scope domain.Scope, topK int) ([]domain.RankedResult, error)
}

// AnswerService is the inbound contract for RAG answering.
type AnswerService interface {
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.Answer, error)
}

// PDFIngestor uploads a source PDF and schedules indexing.
type PDFIngestor interface {
	Upload(ctx context.Context, workspace, filename string, body io.Reader, size int64) error
	ScheduleIndexing(ctx context.Context, workspace, filename string) error
}

// ChunkJobProcessor is the worker-side contract for one ingestion job.
type ChunkJobProcessor interface {
	Process(ctx context.Context, job domain.ChunkJob) error
}

// WorkspaceManager handles workspace/file lifecycle.
type WorkspaceManager interface {
	ListWorkspaces(ctx context.Context) ([]string, error)
	CreateWorkspace(ctx context.Context, name string) (created bool, err error)
	DeleteWorkspace(ctx context.Context, name string) error
	ListPDFs(ctx context.Context, workspace string) ([]string, error)
	DeletePDF(ctx context.Context, workspace, filename string) error
}
