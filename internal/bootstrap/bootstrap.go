package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sapirag/internal/config"
	"sapirag/internal/core/ports"
	"sapirag/internal/core/usecase"
	"sapirag/internal/infrastructure/chunking"
	"sapirag/internal/infrastructure/extractor/pdf"
	"sapirag/internal/infrastructure/llm/gemini"
	"sapirag/internal/infrastructure/llm/ollama"
	"sapirag/internal/infrastructure/queue/nats"
	"sapirag/internal/infrastructure/repository/postgres"
	"sapirag/internal/infrastructure/rerank"
	"sapirag/internal/infrastructure/resilience"
	"sapirag/internal/infrastructure/storage/minio"
	"sapirag/internal/infrastructure/tokenizer"
	"sapirag/internal/observability/metrics"
)

// App wires the adapters behind the inbound ports. Both binaries build
// the same graph; the api serves HTTP, the worker consumes chunk jobs.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue         ports.MessageQueue
	SearchUC      ports.SearchService
	Answerers     map[string]ports.AnswerService
	IngestUC      ports.PDFIngestor
	ProcessUC     ports.ChunkJobProcessor
	WorkspaceUC   ports.WorkspaceManager
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewChunkRepository(db)
	if err := repo.EnsureSchema(ctx, cfg.EmbeddingDim); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := minio.NewStorage(minio.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	exec := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, cfg.NATSGroup, nats.Options{
		ResilienceExecutor: exec,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(ollama.Options{
		BaseURL:     cfg.OllamaURL,
		GenModel:    cfg.OllamaGenModel,
		EmbedModel:  cfg.OllamaEmbedModel,
		Temperature: cfg.OllamaTemperature,
		MaxTokens:   cfg.OllamaMaxTokens,
		Timeout:     time.Duration(cfg.OllamaTimeoutSecs) * time.Second,
	}, exec)
	embedder := ollama.NewEmbedder(ollamaClient)

	reranker := rerank.New(rerank.Options{
		BaseURL: cfg.RerankURL,
		Model:   cfg.RerankModel,
		Timeout: time.Duration(cfg.RerankTimeoutSecs) * time.Second,
	}, exec)

	counter, err := tokenizer.NewCounter()
	if err != nil {
		return nil, fmt.Errorf("init token counter: %w", err)
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := pdf.NewExtractor()

	searchUC := usecase.NewSearchUseCase(repo, embedder, usecase.NewFuser(reranker))
	ragTimeout := time.Duration(cfg.RAGTimeoutSeconds) * time.Second

	answerers := map[string]ports.AnswerService{
		"ollama": usecase.NewAnswerUseCase(searchUC, ollama.NewGenerator(ollamaClient), counter, ragTimeout),
	}
	if cfg.GeminiAPIKey != "" {
		geminiClient := gemini.New(gemini.Options{
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			APIKey:  cfg.GeminiAPIKey,
		})
		answerers["gemini"] = usecase.NewAnswerUseCase(searchUC, geminiClient, counter, ragTimeout)
	}

	workerMetrics := metrics.NewWorkerMetrics("worker")

	ingestUC := usecase.NewIngestUseCase(storage, queue)
	processUC := usecase.NewProcessUseCase(storage, extractor, chunker, embedder, repo, workerMetrics, logger)
	workspaceUC := usecase.NewWorkspaceUseCase(storage, repo)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:         queue,
		SearchUC:      searchUC,
		Answerers:     answerers,
		IngestUC:      ingestUC,
		ProcessUC:     processUC,
		WorkspaceUC:   workspaceUC,
		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// DefaultBackend returns the configured generation backend, falling back
// to ollama when the configured one is not wired.
func (a *App) DefaultBackend() string {
	if _, ok := a.Answerers[a.Config.GenerationBackend]; ok {
		return a.Config.GenerationBackend
	}
	return "ollama"
}
