package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/safety-qa/internal/config"
	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
	"github.com/kirillkom/safety-qa/internal/core/usecase"
	"github.com/kirillkom/safety-qa/internal/infrastructure/chunking"
	"github.com/kirillkom/safety-qa/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/safety-qa/internal/infrastructure/extractor"
	"github.com/kirillkom/safety-qa/internal/infrastructure/index"
	"github.com/kirillkom/safety-qa/internal/infrastructure/queue/nats"
	"github.com/kirillkom/safety-qa/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/safety-qa/internal/infrastructure/resilience"
	"github.com/kirillkom/safety-qa/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository
	Docs  ports.DocumentReader

	IngestUC  ports.DocumentIngestor
	ExtractUC ports.DocumentProcessor
	AskUC     ports.QuestionAnswerer
	IndexUC   ports.IndexManager

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, ollama.Options{
		RateLimit: cfg.EmbedRateLimit,
		RateBurst: cfg.EmbedRateBurst,
		Executor:  executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)

	chunker := chunking.NewSplitter(cfg.ChunkTargetSize, cfg.ChunkOverlap)
	textExtractor := extractor.New(storage)
	builder := index.NewBuilder(cfg.BM25K1, cfg.BM25B)
	store := index.NewStore()

	ranking := domain.RankingConfig{
		VectorWeight:        cfg.VectorWeight,
		BM25Weight:          cfg.BM25Weight,
		TitleWeight:         cfg.TitleWeight,
		LengthWeight:        cfg.LengthWeight,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		ChunkTargetSize:     cfg.ChunkTargetSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		CandidateMultiplier: cfg.CandidateMultiplier,
		CandidateFloor:      cfg.CandidateFloor,
	}

	askUC, err := usecase.NewAskUseCase(embedder, store, ranking)
	if err != nil {
		return nil, fmt.Errorf("init ask usecase: %w", err)
	}
	indexUC := usecase.NewBuildIndexUseCase(repo, chunker, embedder, builder, store, cfg.MinDocumentWords, cfg.BuildPoolSize, logger)
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	extractUC := usecase.NewExtractDocumentUseCase(repo, textExtractor)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Repo:  repo,
		Docs:  repo,

		IngestUC:  ingestUC,
		ExtractUC: extractUC,
		AskUC:     askUC,
		IndexUC:   indexUC,

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
