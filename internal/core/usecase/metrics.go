package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/core/ports"
)

// MetricsAggregator recomputes usage metrics from the QuestionRecord log on
// every call. There are no mutable counters anywhere: the log is the single
// source of truth, which makes the aggregation replayable and trivially
// testable.
type MetricsAggregator struct {
	questions  ports.QuestionRepository
	windowDays int
	now        func() time.Time
}

func NewMetricsAggregator(questions ports.QuestionRepository, windowDays int) *MetricsAggregator {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &MetricsAggregator{
		questions:  questions,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Compute derives metrics over the trailing window, scoped to one owner
// when ownerID is non-empty and global otherwise.
func (a *MetricsAggregator) Compute(ctx context.Context, ownerID string) (*domain.UsageMetrics, error) {
	since := a.now().UTC().AddDate(0, 0, -a.windowDays).Truncate(24 * time.Hour)

	records, err := a.questions.ListSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("list question records: %w", err)
	}

	metrics := &domain.UsageMetrics{
		RiskHistogram: make(map[domain.RiskCategory]int),
		WindowDays:    a.windowDays,
	}

	daily := make(map[time.Time]int)
	var confidenceSum, coverageSum float64
	for _, record := range records {
		metrics.TotalQuestions++
		confidenceSum += record.Confidence
		coverageSum += record.EvidenceCoverage
		metrics.RiskHistogram[record.RiskCategory]++
		metrics.ConfidenceBuckets[confidenceBucket(record.Confidence)]++
		daily[record.CreatedAt.UTC().Truncate(24*time.Hour)]++
	}

	if metrics.TotalQuestions > 0 {
		metrics.MeanConfidence = confidenceSum / float64(metrics.TotalQuestions)
		metrics.MeanCoverage = coverageSum / float64(metrics.TotalQuestions)
	}

	metrics.DailyCounts = make([]domain.DailyCount, 0, len(daily))
	for day, count := range daily {
		metrics.DailyCounts = append(metrics.DailyCounts, domain.DailyCount{Day: day, Count: count})
	}
	sort.Slice(metrics.DailyCounts, func(i, j int) bool {
		return metrics.DailyCounts[i].Day.Before(metrics.DailyCounts[j].Day)
	})

	return metrics, nil
}

func confidenceBucket(confidence float64) int {
	bucket := int(confidence * domain.ConfidenceBucketCount)
	if bucket < 0 {
		return 0
	}
	if bucket >= domain.ConfidenceBucketCount {
		return domain.ConfidenceBucketCount - 1
	}
	return bucket
}
