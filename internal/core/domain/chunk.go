package domain

import "time"

// Chunk is a bounded slice of a document's extracted text together with its
// embedding vector. Chunks are created in a single ingestion pass and are
// immutable; re-ingestion replaces the whole set for a document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	Ordinal    int       `json:"ordinal"`
	CreatedAt  time.Time `json:"created_at"`
}
