package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/infrastructure/chunking"
	"github.com/veriskai/modelrisk/internal/infrastructure/vector/memory"
)

// countingEmbedder returns a distinct constant-direction vector per call so
// re-ingested chunks are distinguishable in the index.
type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, float32(e.calls)}
	}
	return vectors, nil
}

func (e *countingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 1}, nil
}

func TestReingestReplacesVectorsWithoutDuplicates(t *testing.T) {
	now := time.Now().UTC()
	repo := &repoFake{doc: &domain.Document{
		ID:          "doc-1",
		OwnerID:     "owner-1",
		DisplayName: "governance.txt",
		SourceURI:   "doc-1_governance.txt",
		MediaType:   "text/plain",
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
	storage := &storageFake{content: "model bias controls and validation procedures"}
	index := memory.NewIndex()

	pipeline := NewIngestionPipeline(
		repo,
		storage,
		&extractorFake{text: storage.content},
		chunking.NewSplitter(20),
		&countingEmbedder{},
		index,
	)

	if err := pipeline.Ingest(context.Background(), "doc-1"); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	firstCount := repo.chunkCount
	if firstCount == 0 {
		t.Fatal("expected chunks from first ingestion")
	}

	if err := pipeline.Ingest(context.Background(), "doc-1"); err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if repo.chunkCount != firstCount {
		t.Fatalf("expected stable chunk count %d, got %d", firstCount, repo.chunkCount)
	}

	hits, err := index.Search(context.Background(), []float32{1, 2}, 100, 0, domain.SearchScope{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != firstCount {
		t.Fatalf("expected %d live chunks after re-ingest, got %d", firstCount, len(hits))
	}
}
