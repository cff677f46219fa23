package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

// IngestUseCase stores an uploaded PDF in the workspace bucket and schedules
// chunk indexing through the queue. The heavy path (extract, embed, persist)
// runs in the worker.
type IngestUseCase struct {
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestUseCase(storage ports.ObjectStorage, queue ports.MessageQueue) *IngestUseCase {
	return &IngestUseCase{
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestUseCase) Upload(ctx context.Context, workspace, filename string, body io.Reader, size int64) error {
	if workspace == "" {
		return domain.WrapError(domain.ErrInvalidInput, "upload pdf", errors.New("workspace is required"))
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return domain.WrapError(domain.ErrInvalidInput, "upload pdf", fmt.Errorf("only PDF files are supported, got %q", filename))
	}

	if _, err := uc.storage.EnsureBucket(ctx, workspace); err != nil {
		return fmt.Errorf("ensure workspace bucket: %w", err)
	}
	if err := uc.storage.Put(ctx, workspace, filename, body, size, "application/pdf"); err != nil {
		return fmt.Errorf("store pdf: %w", err)
	}
	return nil
}

func (uc *IngestUseCase) ScheduleIndexing(ctx context.Context, workspace, filename string) error {
	if workspace == "" || filename == "" {
		return domain.WrapError(domain.ErrInvalidInput, "schedule indexing", errors.New("workspace and filename are required"))
	}
	exists, err := uc.storage.BucketExists(ctx, workspace)
	if err != nil {
		return fmt.Errorf("check workspace bucket: %w", err)
	}
	if !exists {
		return domain.WrapError(domain.ErrNotFound, "schedule indexing", fmt.Errorf("workspace %q", workspace))
	}

	if err := uc.queue.PublishChunkJob(ctx, domain.ChunkJob{Workspace: workspace, Filename: filename}); err != nil {
		return fmt.Errorf("publish chunk job: %w", err)
	}
	return nil
}
