package ports

import (
	"context"
	"io"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

// DocumentService is the inbound contract for document lifecycle operations.
type DocumentService interface {
	Upload(ctx context.Context, ownerID, displayName, mediaType string, size int64, body io.Reader) (*domain.Document, error)
	Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error)
	List(ctx context.Context, ownerID string, limit int) ([]domain.Document, error)
	Delete(ctx context.Context, ownerID, documentID string) error
	Reingest(ctx context.Context, ownerID, documentID string) error
}

// DocumentIngestor runs the ingestion state machine for one document.
type DocumentIngestor interface {
	Ingest(ctx context.Context, documentID string) error
}

// AnswerService answers questions against the indexed corpus.
type AnswerService interface {
	Answer(ctx context.Context, ownerID, question string) (*domain.QuestionRecord, error)
	History(ctx context.Context, ownerID string, limit int) ([]domain.QuestionRecord, error)
}

// MetricsService derives usage metrics from the QuestionRecord log.
type MetricsService interface {
	Compute(ctx context.Context, ownerID string) (*domain.UsageMetrics, error)
}
