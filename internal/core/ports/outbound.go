package ports

import (
	"context"
	"io"
	"time"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetIndexed(ctx context.Context, id string, chunkCount int) error
	Delete(ctx context.Context, id string) error
}

// QuestionRepository is the append-only QuestionRecord log.
type QuestionRepository interface {
	Create(ctx context.Context, record *domain.QuestionRecord) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.QuestionRecord, error)
	ListSince(ctx context.Context, ownerID string, since time.Time) ([]domain.QuestionRecord, error)
}

// BlobStorage stores and serves raw document bytes.
type BlobStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue decouples upload from ingestion.
type MessageQueue interface {
	PublishIngestRequested(ctx context.Context, documentID string) error
	SubscribeIngestRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns fetched document bytes into plain text. Unsupported
// media types yield a degraded placeholder, never an error.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document, raw []byte) (string, error)
}

// Chunker splits extracted text into bounded passages. Concatenating the
// output reproduces the input exactly.
type Chunker interface {
	Split(text string) []string
}

// Embedder maps text to fixed-dimension vectors; batch output order matches
// input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores chunk vectors and answers cosine-similarity queries.
// Search returns at most k hits, each with similarity >= minSimilarity,
// descending, ties stable by insertion order. An empty result is not an
// error.
type VectorIndex interface {
	Upsert(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, revision string) error
	Search(ctx context.Context, vector []float32, k int, minSimilarity float64, scope domain.SearchScope) ([]domain.ScoredChunk, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	// DropStale removes a document's chunks from every revision except
	// keepRevision. Called only after the new revision is fully visible.
	DropStale(ctx context.Context, documentID, keepRevision string) error
}

// AnswerGenerator produces free-form answer text from a question and an
// assembled context block.
type AnswerGenerator interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}
