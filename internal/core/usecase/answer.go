package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/core/ports"
)

const (
	noEvidenceAnswer = "Insufficient evidence: none of the indexed documents contain passages relevant to this question. Upload governance documentation covering this topic and ask again."

	noEvidenceLimitation  = "No supporting evidence was retrieved; this response is not grounded in any indexed document."
	lowEvidenceLimitation = "Fewer supporting passages were retrieved than requested; the answer may not cover the question fully."
)

// AnswerConfig carries the retrieval and generation tunables. All of them
// are configuration, never constants inside the engine.
type AnswerConfig struct {
	TopK              int
	MinSimilarity     float64
	ContextBudget     int
	GenerationTimeout time.Duration
}

func (c AnswerConfig) normalize() AnswerConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = 5
	}
	if out.MinSimilarity < 0 {
		out.MinSimilarity = 0
	}
	if out.ContextBudget <= 0 {
		out.ContextBudget = 6000
	}
	if out.GenerationTimeout <= 0 {
		out.GenerationTimeout = 30 * time.Second
	}
	return out
}

// AnswerEngine turns a question into a grounded, cited, scored
// QuestionRecord. Zero retrieved evidence is a valid outcome, not an error;
// the only hard-failure points are the embedding and generation calls.
type AnswerEngine struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	generator ports.AnswerGenerator
	questions ports.QuestionRepository
	cfg       AnswerConfig
}

func NewAnswerEngine(
	embedder ports.Embedder,
	index ports.VectorIndex,
	generator ports.AnswerGenerator,
	questions ports.QuestionRepository,
	cfg AnswerConfig,
) *AnswerEngine {
	return &AnswerEngine{
		embedder:  embedder,
		index:     index,
		generator: generator,
		questions: questions,
		cfg:       cfg.normalize(),
	}
}

func (e *AnswerEngine) Answer(ctx context.Context, ownerID, question string) (*domain.QuestionRecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("question is empty"))
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("owner id is required"))
	}

	started := time.Now()

	queryVector, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := e.index.Search(ctx, queryVector, e.cfg.TopK, e.cfg.MinSimilarity, domain.SearchScope{OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}

	used := fitContextBudget(hits, e.cfg.ContextBudget)

	answerText, err := e.generateAnswer(ctx, question, used)
	if err != nil {
		return nil, err
	}

	record := &domain.QuestionRecord{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		Question:         question,
		Answer:           answerText,
		RiskCategory:     ClassifyRisk(question + " " + answerText),
		Confidence:       confidenceScore(used),
		EvidenceCoverage: evidenceCoverage(len(used), e.cfg.TopK),
		Citations:        buildCitations(used),
		Limitations:      limitationsFor(len(used), e.cfg.TopK),
		RetrievedChunks:  len(used),
		LatencyMS:        time.Since(started).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	if err := e.questions.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist question record: %w", err)
	}
	return record, nil
}

func (e *AnswerEngine) History(ctx context.Context, ownerID string, limit int) ([]domain.QuestionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := e.questions.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list question records: %w", err)
	}
	return records, nil
}

// generateAnswer invokes the model under its own deadline. With zero
// evidence no generation call is made at all: an ungrounded model answer
// would violate the evidence-based contract, so the engine returns a fixed
// insufficient-evidence response instead.
func (e *AnswerEngine) generateAnswer(ctx context.Context, question string, used []domain.ScoredChunk) (string, error) {
	if len(used) == 0 {
		return noEvidenceAnswer, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerationTimeout)
	defer cancel()

	text, err := e.generator.Generate(genCtx, question, assembleContext(used))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.WrapError(domain.ErrGeneration, "generate answer", err)
		}
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrGeneration, "generate answer", errors.New("model returned empty answer"))
	}
	return text, nil
}

// fitContextBudget keeps retrieval order (highest similarity first) and
// drops lowest-similarity chunks until the total content fits the budget.
// If the top chunk alone exceeds the budget it is clipped, not dropped.
func fitContextBudget(hits []domain.ScoredChunk, budget int) []domain.ScoredChunk {
	if len(hits) == 0 {
		return nil
	}

	used := make([]domain.ScoredChunk, 0, len(hits))
	total := 0
	for _, hit := range hits {
		size := len([]rune(hit.Content))
		if total+size > budget {
			break
		}
		used = append(used, hit)
		total += size
	}

	if len(used) == 0 {
		clipped := hits[0]
		runes := []rune(clipped.Content)
		if len(runes) > budget {
			clipped.Content = string(runes[:budget])
		}
		used = append(used, clipped)
	}
	return used
}

func assembleContext(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] document=%s section=%s similarity=%.3f\n%s\n\n",
			i+1, chunk.DocumentName, sectionLabel(chunk.Ordinal), chunk.Similarity, chunk.Content)
	}
	return b.String()
}

// confidenceScore is a position-weighted mean of the retrieved similarities
// with harmonic weights 1, 1/2, ... 1/n, clamped to [0,1]. It is 0 when no
// chunk cleared the similarity floor.
func confidenceScore(chunks []domain.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var weighted, weights float64
	for i, chunk := range chunks {
		w := 1.0 / float64(i+1)
		weighted += w * chunk.Similarity
		weights += w
	}
	score := weighted / weights
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func evidenceCoverage(used, topK int) float64 {
	if topK <= 0 || used <= 0 {
		return 0
	}
	coverage := float64(used) / float64(topK)
	if coverage > 1 {
		return 1
	}
	return coverage
}

func buildCitations(chunks []domain.ScoredChunk) []domain.Citation {
	citations := make([]domain.Citation, 0, len(chunks))
	for _, chunk := range chunks {
		citations = append(citations, domain.Citation{
			DocumentName: chunk.DocumentName,
			Section:      sectionLabel(chunk.Ordinal),
			ChunkID:      chunk.ChunkID,
			Relevance:    chunk.Similarity,
		})
	}
	return citations
}

func limitationsFor(used, topK int) string {
	switch {
	case used == 0:
		return noEvidenceLimitation
	case evidenceCoverage(used, topK) < 0.5:
		return lowEvidenceLimitation
	default:
		return ""
	}
}

func sectionLabel(ordinal int) string {
	return fmt.Sprintf("passage %d", ordinal+1)
}
