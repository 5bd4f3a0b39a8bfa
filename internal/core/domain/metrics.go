package domain

import "time"

// ConfidenceBucketCount is the number of equal-width buckets covering [0,1].
const ConfidenceBucketCount = 5

// DailyCount is the number of questions answered on one calendar day (UTC).
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// UsageMetrics is derived entirely from the QuestionRecord log. It carries
// no state of its own and can be recomputed at any time.
type UsageMetrics struct {
	TotalQuestions    int                        `json:"total_questions"`
	MeanConfidence    float64                    `json:"mean_confidence"`
	MeanCoverage      float64                    `json:"mean_coverage"`
	RiskHistogram     map[RiskCategory]int       `json:"risk_histogram"`
	ConfidenceBuckets [ConfidenceBucketCount]int `json:"confidence_buckets"`
	DailyCounts       []DailyCount               `json:"daily_counts"`
	WindowDays        int                        `json:"window_days"`
}
