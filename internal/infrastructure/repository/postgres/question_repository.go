package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Create(ctx context.Context, record *domain.QuestionRecord) error {
	citations := record.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO questions (
	id, owner_id, question, answer, risk_category, confidence, evidence_coverage, citations, limitations, retrieved_chunks, latency_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		record.ID, record.OwnerID, record.Question, record.Answer, string(record.RiskCategory),
		record.Confidence, record.EvidenceCoverage, citationsJSON, record.Limitations,
		record.RetrievedChunks, record.LatencyMS, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.QuestionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, owner_id, question, answer, risk_category, confidence, evidence_coverage, citations, limitations, retrieved_chunks, latency_ms, created_at
FROM questions
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	return collectQuestions(rows)
}

// ListSince returns records in the trailing window, globally when ownerID
// is empty.
func (r *QuestionRepository) ListSince(ctx context.Context, ownerID string, since time.Time) ([]domain.QuestionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, owner_id, question, answer, risk_category, confidence, evidence_coverage, citations, limitations, retrieved_chunks, latency_ms, created_at
FROM questions
WHERE created_at >= $1 AND ($2 = '' OR owner_id = $2)
ORDER BY created_at ASC
`, since, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query questions since: %w", err)
	}
	defer rows.Close()

	return collectQuestions(rows)
}

func collectQuestions(rows *sql.Rows) ([]domain.QuestionRecord, error) {
	var records []domain.QuestionRecord
	for rows.Next() {
		var record domain.QuestionRecord
		var category string
		var citationsRaw []byte

		err := rows.Scan(
			&record.ID, &record.OwnerID, &record.Question, &record.Answer, &category,
			&record.Confidence, &record.EvidenceCoverage, &citationsRaw, &record.Limitations,
			&record.RetrievedChunks, &record.LatencyMS, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		if err := json.Unmarshal(citationsRaw, &record.Citations); err != nil {
			return nil, fmt.Errorf("unmarshal citations: %w", err)
		}
		record.RiskCategory = domain.RiskCategory(category)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return records, nil
}
