// Package bootstrap wires adapters into the core use cases. Both binaries
// build the same App so api and worker always agree on configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veriskai/modelrisk/internal/config"
	"github.com/veriskai/modelrisk/internal/core/ports"
	"github.com/veriskai/modelrisk/internal/core/usecase"
	"github.com/veriskai/modelrisk/internal/infrastructure/chunking"
	"github.com/veriskai/modelrisk/internal/infrastructure/extractor"
	"github.com/veriskai/modelrisk/internal/infrastructure/llm/ollama"
	"github.com/veriskai/modelrisk/internal/infrastructure/queue/nats"
	"github.com/veriskai/modelrisk/internal/infrastructure/repository/postgres"
	"github.com/veriskai/modelrisk/internal/infrastructure/resilience"
	"github.com/veriskai/modelrisk/internal/infrastructure/storage/localfs"
	"github.com/veriskai/modelrisk/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Documents ports.DocumentService
	Ingestor  ports.DocumentIngestor
	Answers   ports.AnswerService
	Usage     ports.MetricsService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	questionRepo := postgres.NewQuestionRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.RetryMaxBackoffMS) * time.Millisecond,

		BreakerEnabled:      true,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
	})

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		RequestsPerSecond: cfg.OllamaRateRPS,
		Burst:             cfg.OllamaRateBurst,
		Executor:          executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize)
	extract := extractor.NewDispatcher()

	documents := usecase.NewDocumentUseCase(docRepo, storage, queue, index)
	ingestor := usecase.NewIngestionPipeline(docRepo, storage, extract, chunker, embedder, index)
	answers := usecase.NewAnswerEngine(embedder, index, generator, questionRepo, usecase.AnswerConfig{
		TopK:              cfg.AnswerTopK,
		MinSimilarity:     cfg.AnswerMinSimilarity,
		ContextBudget:     cfg.AnswerContextBudget,
		GenerationTimeout: time.Duration(cfg.AnswerTimeoutSeconds) * time.Second,
	})
	usage := usecase.NewMetricsAggregator(questionRepo, cfg.MetricsWindowDays)

	return &App{
		Config: cfg,

		Queue:     queue,
		Documents: documents,
		Ingestor:  ingestor,
		Answers:   answers,
		Usage:     usage,

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
