package domain

import "time"

type RiskCategory string

const (
	RiskBias           RiskCategory = "bias"
	RiskExplainability RiskCategory = "explainability"
	RiskData           RiskCategory = "data"
	RiskDeployment     RiskCategory = "deployment"
	RiskCompliance     RiskCategory = "compliance"
	RiskUnknown        RiskCategory = "unknown"
)

// Citation points at a retrieved passage that grounds part of an answer.
// It has no lifecycle of its own; it is embedded in its QuestionRecord.
type Citation struct {
	DocumentName string  `json:"document_name"`
	Section      string  `json:"section"`
	ChunkID      string  `json:"chunk_id,omitempty"`
	Relevance    float64 `json:"relevance"`
}

// QuestionRecord is the append-only record of one answered question.
// Confidence and EvidenceCoverage are in [0,1]; both are 0 when no chunk
// cleared the similarity floor.
type QuestionRecord struct {
	ID               string       `json:"id"`
	OwnerID          string       `json:"owner_id"`
	Question         string       `json:"question"`
	Answer           string       `json:"answer"`
	RiskCategory     RiskCategory `json:"risk_category"`
	Confidence       float64      `json:"confidence"`
	EvidenceCoverage float64      `json:"evidence_coverage"`
	Citations        []Citation   `json:"citations"`
	Limitations      string       `json:"limitations,omitempty"`
	RetrievedChunks  int          `json:"retrieved_chunks"`
	LatencyMS        int64        `json:"latency_ms"`
	CreatedAt        time.Time    `json:"created_at"`
}
