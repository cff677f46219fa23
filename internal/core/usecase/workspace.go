package usecase

import (
	"context"
	"errors"
	"fmt"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

// WorkspaceUseCase manages workspace buckets and their PDFs, keeping the
// chunk store in sync on deletes.
type WorkspaceUseCase struct {
	storage ports.ObjectStorage
	store   ports.ChunkStore
}

func NewWorkspaceUseCase(storage ports.ObjectStorage, store ports.ChunkStore) *WorkspaceUseCase {
	return &WorkspaceUseCase{
		storage: storage,
		store:   store,
	}
}

func (uc *WorkspaceUseCase) ListWorkspaces(ctx context.Context) ([]string, error) {
	buckets, err := uc.storage.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	return buckets, nil
}

func (uc *WorkspaceUseCase) CreateWorkspace(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, domain.WrapError(domain.ErrInvalidInput, "create workspace", errors.New("name is required"))
	}
	created, err := uc.storage.EnsureBucket(ctx, name)
	if err != nil {
		return false, fmt.Errorf("create bucket: %w", err)
	}
	return created, nil
}

// DeleteWorkspace removes the bucket with all objects, then the chunk rows.
// Bucket deletion goes first so a failure leaves chunks searchable rather
// than orphaning stored PDFs.
func (uc *WorkspaceUseCase) DeleteWorkspace(ctx context.Context, name string) error {
	exists, err := uc.storage.BucketExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return domain.WrapError(domain.ErrNotFound, "delete workspace", fmt.Errorf("workspace %q", name))
	}

	if err := uc.storage.RemoveBucket(ctx, name); err != nil {
		return fmt.Errorf("remove bucket: %w", err)
	}
	if err := uc.store.DeleteByWorkspace(ctx, name); err != nil {
		return fmt.Errorf("delete workspace chunks: %w", err)
	}
	return nil
}

func (uc *WorkspaceUseCase) ListPDFs(ctx context.Context, workspace string) ([]string, error) {
	exists, err := uc.storage.BucketExists(ctx, workspace)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return nil, domain.WrapError(domain.ErrNotFound, "list pdfs", fmt.Errorf("workspace %q", workspace))
	}
	objects, err := uc.storage.ListObjects(ctx, workspace, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return objects, nil
}

func (uc *WorkspaceUseCase) DeletePDF(ctx context.Context, workspace, filename string) error {
	if err := uc.storage.Remove(ctx, workspace, filename); err != nil {
		return fmt.Errorf("remove pdf: %w", err)
	}
	if err := uc.store.DeleteByFile(ctx, workspace, filename); err != nil {
		return fmt.Errorf("delete file chunks: %w", err)
	}
	return nil
}
