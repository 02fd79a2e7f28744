package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

// UnknownTimeLabel is shown for entries recorded without a time label
const UnknownTimeLabel = "Unknown time"

// EnrollmentTargets are the business constants the live figures are measured against
type EnrollmentTargets struct {
	Goal                 int64
	RecordReference      int64
	RevenuePerEnrollment decimal.Decimal
	Baseline             int64
}

// ChartPoint is one timeline point as the dashboard chart draws it
type ChartPoint struct {
	Date        string `json:"date"`
	Enrollments int64  `json:"enrollments"`
	Time        string `json:"time,omitempty"`
	Source      string `json:"source,omitempty"`
}

// EnrollmentStats are the derived enrollment figures
type EnrollmentStats struct {
	Enrollments      int64        `json:"enrollments"`
	Revenue          float64      `json:"enrollmentRevenue"`
	GoalProgress     float64      `json:"goalProgress"`
	RecordDifference int64        `json:"recordDifference"`
	LastUpdated      time.Time    `json:"lastUpdated"`
	Timeline         []ChartPoint `json:"timeline"`
}

// ComputeEnrollmentStats derives goal progress, revenue and the chart timeline.
// A nil state means nothing was ever written; the baseline is used instead.
func ComputeEnrollmentStats(state *domain.LedgerState, timeline []domain.TimelineEntry, targets EnrollmentTargets) EnrollmentStats {
	value := targets.Baseline
	var lastUpdated time.Time
	if state != nil {
		value = state.MetricValue
		lastUpdated = state.LastUpdatedAt
	}

	stats := EnrollmentStats{
		Enrollments:      value,
		Revenue:          targets.RevenuePerEnrollment.Mul(decimal.NewFromInt(value)).InexactFloat64(),
		GoalProgress:     GoalProgress(value, targets.Goal),
		RecordDifference: value - targets.RecordReference,
		LastUpdated:      lastUpdated,
		Timeline:         ChartTimeline(timeline),
	}
	return stats
}

// GoalProgress is value/goal as a percentage rounded to 1 place; 0 when no goal is set
func GoalProgress(value, goal int64) float64 {
	if goal <= 0 {
		return 0
	}
	return decimal.NewFromInt(value).Mul(hundred).Div(decimal.NewFromInt(goal)).Round(1).InexactFloat64()
}

// ChartTimeline maps ledger entries onto chart points, oldest first
func ChartTimeline(entries []domain.TimelineEntry) []ChartPoint {
	sorted := append([]domain.TimelineEntry(nil), entries...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].RecordedAt.Before(sorted[b].RecordedAt)
	})

	points := make([]ChartPoint, 0, len(sorted))
	for _, e := range sorted {
		point := ChartPoint{
			Date:        e.Date,
			Enrollments: e.MetricValueAfter,
			Time:        e.Label,
			Source:      string(e.Source),
		}
		if point.Time == "" {
			point.Time = UnknownTimeLabel
		}
		if point.Source == "" {
			point.Source = string(domain.SourceManual)
		}
		points = append(points, point)
	}
	return points
}
