package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/core/ports"
)

// DocumentUseCase handles document lifecycle outside the ingestion state
// machine: upload, lookup, listing and cascade deletion. Every operation
// receives an already-authenticated owner identity.
type DocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.BlobStorage
	queue   ports.MessageQueue
	index   ports.VectorIndex
}

func NewDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.BlobStorage,
	queue ports.MessageQueue,
	index ports.VectorIndex,
) *DocumentUseCase {
	return &DocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		index:   index,
	}
}

func (uc *DocumentUseCase) Upload(
	ctx context.Context,
	ownerID, displayName, mediaType string,
	size int64,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("owner id is required"))
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("display name is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(displayName))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to blob storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		OwnerID:     ownerID,
		DisplayName: displayName,
		SourceURI:   storageKey,
		MediaType:   mediaType,
		SizeBytes:   size,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishIngestRequested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingest event: %w", err)
	}

	return doc, nil
}

func (uc *DocumentUseCase) Get(ctx context.Context, ownerID, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	if doc.OwnerID != ownerID {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New("document not owned by caller"))
	}
	return doc, nil
}

func (uc *DocumentUseCase) List(ctx context.Context, ownerID string, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	docs, err := uc.repo.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Reingest queues the document for another ingestion run. The pipeline's
// revision swap keeps search results intact until new vectors land.
func (uc *DocumentUseCase) Reingest(ctx context.Context, ownerID, documentID string) error {
	doc, err := uc.Get(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if err := uc.queue.PublishIngestRequested(ctx, doc.ID); err != nil {
		return fmt.Errorf("publish ingest event: %w", err)
	}
	return nil
}

// Delete removes a document and all of its index entries. Vectors go first
// so a partial failure can never leave orphaned vectors behind.
func (uc *DocumentUseCase) Delete(ctx context.Context, ownerID, documentID string) error {
	if _, err := uc.Get(ctx, ownerID, documentID); err != nil {
		return err
	}
	if err := uc.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document vectors: %w", err)
	}
	if err := uc.repo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
