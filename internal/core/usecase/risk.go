package usecase

import (
	"strings"

	"github.com/veriskai/modelrisk/internal/core/domain"
)

// riskKeywords drives the deterministic risk classifier. The generation
// model is never trusted to emit the enum; classification is a pure keyword
// count over question and answer text, so the same text always lands in the
// same category.
var riskKeywords = []struct {
	category domain.RiskCategory
	terms    []string
}{
	{domain.RiskBias, []string{
		"bias", "biased", "fairness", "unfair", "discriminat", "disparate",
		"protected class", "demographic parity", "equal opportunity",
	}},
	{domain.RiskExplainability, []string{
		"explainab", "interpretab", "black box", "black-box", "transparen",
		"feature importance", "shap", "lime", "why did the model",
	}},
	{domain.RiskData, []string{
		"data quality", "training data", "data drift", "data lineage",
		"missing data", "label", "dataset", "sampling", "data governance",
	}},
	{domain.RiskDeployment, []string{
		"deploy", "production", "monitoring", "rollback", "canary",
		"model drift", "performance degradation", "serving", "uptime",
	}},
	{domain.RiskCompliance, []string{
		"complian", "regulat", "audit", "sr 11-7", "gdpr", "policy",
		"legal", "documentation requirement", "governance framework",
	}},
}

// ClassifyRisk assigns one of the fixed risk categories to free text.
// Categories are scored by keyword occurrences; the highest strictly
// greater count wins, earlier categories win ties, and text matching
// nothing is RiskUnknown.
func ClassifyRisk(text string) domain.RiskCategory {
	lower := strings.ToLower(text)

	best := domain.RiskUnknown
	bestScore := 0
	for _, entry := range riskKeywords {
		score := 0
		for _, term := range entry.terms {
			score += strings.Count(lower, term)
		}
		if score > bestScore {
			best = entry.category
			bestScore = score
		}
	}
	return best
}
