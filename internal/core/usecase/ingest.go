package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/core/ports"
)

// IngestionPipeline drives the per-document state machine
// pending -> processing -> {indexed | error}. It owns every status
// transition; nothing else writes document status.
//
// Failed ingestions are not retried here. Retry is an explicit external
// action: re-invoking Ingest, which replaces the previous chunk set
// atomically (new revision is fully upserted before stale revisions are
// dropped).
type IngestionPipeline struct {
	repo      ports.DocumentRepository
	storage   ports.BlobStorage
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.VectorIndex
}

func NewIngestionPipeline(
	repo ports.DocumentRepository,
	storage ports.BlobStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *IngestionPipeline {
	return &IngestionPipeline{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

func (p *IngestionPipeline) Ingest(ctx context.Context, documentID string) error {
	doc, err := p.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := p.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := p.runPipeline(ctx, doc)
	if err != nil {
		return p.markFailed(ctx, documentID, err)
	}

	// The new chunk set is already live in the index at this point, so the
	// final status write must survive a cancelled request context; a
	// failure here still has to resolve the document out of processing.
	if err := p.repo.SetIndexed(context.WithoutCancel(ctx), documentID, chunkCount); err != nil {
		return p.markFailed(ctx, documentID, fmt.Errorf("set status=indexed: %w", err))
	}

	slog.Info("ingestion_complete", "document_id", documentID, "chunks", chunkCount)
	return nil
}

// markFailed records the error terminal state. The write uses a detached
// context so the document resolves out of processing even when ctx itself
// was cancelled.
func (p *IngestionPipeline) markFailed(ctx context.Context, documentID string, cause error) error {
	failCtx := context.WithoutCancel(ctx)
	if failErr := p.repo.UpdateStatus(failCtx, documentID, domain.StatusError, cause.Error()); failErr != nil {
		return fmt.Errorf("%w; mark error status: %v", cause, failErr)
	}
	slog.Error("ingestion_failed", "document_id", documentID, "error", cause)
	return cause
}

func (p *IngestionPipeline) runPipeline(ctx context.Context, doc *domain.Document) (int, error) {
	raw, err := p.fetchBlob(ctx, doc)
	if err != nil {
		return 0, err
	}

	text, err := p.extractor.Extract(ctx, doc, raw)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}

	chunks := p.chunker.Split(text)
	if len(chunks) == 0 {
		// A document with no extractable text still indexes, with zero
		// chunks; callers should treat such documents as low-recall.
		if err := p.index.DeleteByDocument(ctx, doc.ID); err != nil {
			return 0, fmt.Errorf("clear previous chunks: %w", err)
		}
		return 0, nil
	}

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	batch := buildChunkBatch(doc.ID, chunks, vectors)
	revision := uuid.NewString()

	if err := p.index.Upsert(ctx, doc, batch, revision); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	if err := p.index.DropStale(ctx, doc.ID, revision); err != nil {
		return 0, fmt.Errorf("drop stale chunks: %w", err)
	}

	return len(batch), nil
}

func (p *IngestionPipeline) fetchBlob(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := p.storage.Fetch(ctx, doc.SourceURI)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFetchFailure, "fetch blob", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFetchFailure, "read blob", err)
	}
	return raw, nil
}

// embedChunks embeds the whole batch or nothing: a partial embedding result
// aborts ingestion rather than persisting a half-indexed document.
func (p *IngestionPipeline) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d, first missing index %d", len(vectors), len(chunks), len(vectors)),
		)
	}
	return vectors, nil
}

func buildChunkBatch(documentID string, contents []string, vectors [][]float32) []domain.Chunk {
	now := time.Now().UTC()
	batch := make([]domain.Chunk, 0, len(contents))
	for i := range contents {
		batch = append(batch, domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Content:    contents[i],
			Embedding:  vectors[i],
			Ordinal:    i,
			CreatedAt:  now,
		})
	}
	return batch
}
