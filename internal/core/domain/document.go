package domain

import "time"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusError      DocumentStatus = "error"
)

// Document is an uploaded governance document. Status transitions are
// performed only by the ingestion pipeline: pending -> processing -> indexed,
// or -> error on any failed step.
type Document struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	DisplayName string         `json:"display_name"`
	SourceURI   string         `json:"source_uri"`
	MediaType   string         `json:"media_type"`
	SizeBytes   int64          `json:"size_bytes"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	ChunkCount  int            `json:"chunk_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
