package localfs

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

func TestSaveThenFetchRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "doc-1_policy.txt", bytes.NewReader([]byte("content"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Fetch(context.Background(), "doc-1_policy.txt")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(raw) != "content" {
		t.Fatalf("unexpected blob content %q", raw)
	}
}

func TestFetchMissingBlobIsFetchFailure(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = storage.Fetch(context.Background(), "absent.bin")
	if !domain.IsKind(err, domain.ErrFetchFailure) {
		t.Fatalf("expected fetch failure kind, got %v", err)
	}
}

func TestSaveRejectsKeyEscapingBaseDir(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "../outside.bin", bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for escaping key")
	}
}
