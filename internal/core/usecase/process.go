package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

// ProcessObserver receives ingestion volume observations. May be nil.
type ProcessObserver interface {
	ObserveIndexedChunks(count int)
	AddEmbeddedTexts(count int)
}

// ProcessUseCase is the worker pipeline for one chunk job: download the PDF,
// split it into sections, embed, persist.
type ProcessUseCase struct {
	storage   ports.ObjectStorage
	extractor ports.SectionExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	store     ports.ChunkStore
	observer  ProcessObserver
	logger    *slog.Logger
}

func NewProcessUseCase(
	storage ports.ObjectStorage,
	extractor ports.SectionExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	store ports.ChunkStore,
	observer ProcessObserver,
	logger *slog.Logger,
) *ProcessUseCase {
	return &ProcessUseCase{
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		observer:  observer,
		logger:    logger,
	}
}

func (uc *ProcessUseCase) Process(ctx context.Context, job domain.ChunkJob) error {
	pdfData, err := uc.download(ctx, job)
	if err != nil {
		return err
	}

	sections, err := uc.extract(ctx, job, pdfData)
	if err != nil {
		return err
	}

	chunks, err := uc.buildChunks(ctx, job, sections)
	if err != nil {
		return err
	}

	// Re-ingesting the same file accumulates rows; surface the count so
	// operators can spot silent duplication.
	if existing, err := uc.store.CountByFile(ctx, job.Workspace, job.Filename); err == nil && existing > 0 {
		uc.logger.Warn("reingest_accumulates_chunks",
			"workspace", job.Workspace,
			"filename", job.Filename,
			"existing_chunks", existing,
			"new_chunks", len(chunks),
		)
	}

	if err := uc.store.InsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	if uc.observer != nil {
		uc.observer.ObserveIndexedChunks(len(chunks))
	}
	uc.logger.Info("chunks_indexed",
		"workspace", job.Workspace,
		"filename", job.Filename,
		"chunks", len(chunks),
	)
	return nil
}

func (uc *ProcessUseCase) download(ctx context.Context, job domain.ChunkJob) ([]byte, error) {
	reader, err := uc.storage.Get(ctx, job.Workspace, job.Filename)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf from storage: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

func (uc *ProcessUseCase) extract(ctx context.Context, job domain.ChunkJob, pdfData []byte) ([]domain.Section, error) {
	sections, err := uc.extractor.Extract(ctx, pdfData)
	if err != nil {
		return nil, fmt.Errorf("extract sections: %w", err)
	}
	if len(sections) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract sections",
			errors.New("no sections found in document"))
	}
	return uc.resplitOversized(sections), nil
}

// resplitOversized keeps sections as-is unless a body exceeds the chunker's
// window; oversized bodies are re-split into overlapping parts sharing the
// section header.
func (uc *ProcessUseCase) resplitOversized(sections []domain.Section) []domain.Section {
	out := make([]domain.Section, 0, len(sections))
	for _, s := range sections {
		parts := uc.chunker.Split(s.Body)
		if len(parts) <= 1 {
			out = append(out, s)
			continue
		}
		for _, part := range parts {
			out = append(out, domain.Section{Header: s.Header, Body: part})
		}
	}
	return out
}

func (uc *ProcessUseCase) buildChunks(ctx context.Context, job domain.ChunkJob, sections []domain.Section) ([]domain.Chunk, error) {
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.EmbedText()
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed sections", err)
	}
	if uc.observer != nil {
		uc.observer.AddEmbeddedTexts(len(texts))
	}
	if len(vectors) != len(sections) {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed sections",
			fmt.Errorf("vectors/sections mismatch: %d/%d", len(vectors), len(sections)))
	}

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, len(sections))
	for i, s := range sections {
		chunks[i] = domain.Chunk{
			ID:        uuid.NewString(),
			Workspace: job.Workspace,
			Filename:  job.Filename,
			Header:    s.Header,
			Body:      s.Body,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}
	return chunks, nil
}
