package domain

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// BaselineUpdater marks a state that was never written and resolved to the baseline
const BaselineUpdater = "baseline"

// LedgerState is the current value of one tracked metric
type LedgerState struct {
	MetricName    string    `json:"metricName"`
	MetricValue   int64     `json:"metricValue"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// IsBaseline reports whether the state came from the configured seed value
func (s LedgerState) IsBaseline() bool {
	return s.LastUpdatedBy == BaselineUpdater
}

// BaselineState is what an absent metric resolves to
func BaselineState(metricName string, baseline int64, at time.Time) LedgerState {
	return LedgerState{
		MetricName:    metricName,
		MetricValue:   baseline,
		LastUpdatedAt: at,
		LastUpdatedBy: BaselineUpdater,
	}
}

// Source records who produced a timeline entry
type Source string

const (
	SourceManual  Source = "manual"
	SourceWebhook Source = "webhook"
)

// AnomalyClampedAtZero marks a decrement that would have gone negative
const AnomalyClampedAtZero = "clamped_at_zero"

// TimelineEntry is one immutable change to the metric
type TimelineEntry struct {
	ID               string    `json:"id"`
	MetricName       string    `json:"metricName"`
	Date             string    `json:"date"`
	MetricValueAfter int64     `json:"metricValueAfter"`
	Label            string    `json:"label"`
	Source           Source    `json:"source"`
	Action           Operation `json:"action"`
	OrderID          string    `json:"orderId"`
	Anomaly          string    `json:"anomaly,omitempty"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// ChangeMetadata travels with a compare-and-set so the store can
// stamp the state row and reject a second commit of the same key.
type ChangeMetadata struct {
	Key       IdempotencyKey
	Action    Operation
	UpdatedBy string
	At        time.Time
}

// NextValue applies one operation to a value.
// Decrements floor at zero; clamped is true when the floor was hit.
func NextValue(current int64, op Operation) (next int64, clamped bool, err error) {
	switch op {
	case OpIncrement:
		return current + 1, false, nil
	case OpDecrement:
		if current <= 0 {
			return 0, true, nil
		}
		return current - 1, false, nil
	default:
		return current, false, fmt.Errorf("operation %q does not change the ledger", op)
	}
}

// ReplayTimeline rebuilds the metric value from the baseline and the entries in insertion order
func ReplayTimeline(baseline int64, entries []TimelineEntry) int64 {
	value := baseline
	for _, e := range entries {
		if next, _, err := NextValue(value, e.Action); err == nil {
			value = next
		}
	}
	return value
}

var dashboardLocation = loadDashboardLocation()

func loadDashboardLocation() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return time.FixedZone("CT", -6*60*60)
	}
	return loc
}

// TimeLabel formats a moment the way the dashboard shows it, e.g. "3:04 PM CT"
func TimeLabel(t time.Time) string {
	return t.In(dashboardLocation).Format("3:04 PM") + " CT"
}

// EntryDate is the calendar date of a moment in dashboard local time
func EntryDate(t time.Time) string {
	return t.In(dashboardLocation).Format("2006-01-02")
}
