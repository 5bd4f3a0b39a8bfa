package domain

// SearchScope restricts retrieval to documents an owner can see.
// A zero scope means unscoped (trusted internal callers only).
type SearchScope struct {
	OwnerID string
}

// ScoredChunk is one retrieval hit, typed at the store boundary so that
// callers never see raw payload maps.
type ScoredChunk struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkID      string  `json:"chunk_id"`
	Ordinal      int     `json:"ordinal"`
	Content      string  `json:"content"`
	Similarity   float64 `json:"similarity"`
}
