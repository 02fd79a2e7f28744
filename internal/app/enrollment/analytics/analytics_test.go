package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

func charge(amount string, status domain.RecoveryStatus, priority domain.PriorityLevel) domain.FailedCharge {
	return domain.FailedCharge{
		FailedAmount:   decimal.RequireFromString(amount),
		RecoveryStatus: status,
		PriorityLevel:  priority,
	}
}

func TestComputeFailedChargeStats(t *testing.T) {
	testCases := []struct {
		name      string
		records   []domain.FailedCharge
		customers int
		expected  FailedChargeStats
	}{
		{
			name: "one resolved one pending",
			records: []domain.FailedCharge{
				charge("100", domain.RecoveryResolved, domain.PriorityHigh),
				charge("50", domain.RecoveryPending, domain.PriorityLow),
			},
			customers: 12,
			expected: FailedChargeStats{
				TotalFailedCharges:  2,
				TotalAtRisk:         150.00,
				Resolved:            1,
				Pending:             1,
				RecoveryRate:        50.0,
				TotalCustomers:      12,
				PriorityBreakdown:   PriorityBreakdown{High: 1, Low: 1},
				AverageFailedAmount: 75.00,
			},
		},
		{
			name:     "empty collection",
			records:  nil,
			expected: FailedChargeStats{},
		},
		{
			name: "blank status and priority take defaults",
			records: []domain.FailedCharge{
				charge("10.10", "", ""),
				charge("20.20", "Contacted", "HIGH"),
			},
			expected: FailedChargeStats{
				TotalFailedCharges:  2,
				TotalAtRisk:         30.30,
				Contacted:           1,
				Pending:             1,
				RecoveryRate:        0,
				PriorityBreakdown:   PriorityBreakdown{High: 1, Medium: 1},
				AverageFailedAmount: 15.15,
			},
		},
		{
			name: "rounding is half up",
			records: []domain.FailedCharge{
				charge("0.005", domain.RecoveryResolved, domain.PriorityLow),
				charge("0", domain.RecoveryPending, domain.PriorityLow),
				charge("0", domain.RecoveryPending, domain.PriorityLow),
			},
			expected: FailedChargeStats{
				TotalFailedCharges:  3,
				TotalAtRisk:         0.01,
				Resolved:            1,
				Pending:             2,
				RecoveryRate:        33.3,
				PriorityBreakdown:   PriorityBreakdown{Low: 3},
				AverageFailedAmount: 0,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stats := ComputeFailedChargeStats(tc.records, tc.customers)
			assert.Equal(t, tc.expected, stats)
		})
	}
}

func TestComputeFailedChargeStats_RecoveryRateInRange(t *testing.T) {
	statuses := []domain.RecoveryStatus{domain.RecoveryResolved, domain.RecoveryContacted, domain.RecoveryPending, ""}
	var records []domain.FailedCharge
	for n := 0; n < 40; n++ {
		records = append(records, charge("19.99", statuses[n%len(statuses)], ""))
		stats := ComputeFailedChargeStats(records, 0)
		assert.GreaterOrEqual(t, stats.RecoveryRate, 0.0)
		assert.LessOrEqual(t, stats.RecoveryRate, 100.0)
		assert.Equal(t, stats.Resolved+stats.Contacted+stats.Pending, stats.TotalFailedCharges)
	}
}

func TestComputeFailedChargeStats_NegativeCustomerCount(t *testing.T) {
	stats := ComputeFailedChargeStats(nil, -3)
	assert.Equal(t, 0, stats.TotalCustomers)
}

func targets() EnrollmentTargets {
	return EnrollmentTargets{
		Goal:                 375,
		RecordReference:      363,
		RevenuePerEnrollment: decimal.NewFromInt(10000),
		Baseline:             318,
	}
}

func TestComputeEnrollmentStats(t *testing.T) {
	updated := time.Date(2026, 2, 26, 18, 0, 0, 0, time.UTC)
	state := &domain.LedgerState{MetricName: "msm_enrollments", MetricValue: 364, LastUpdatedAt: updated}

	stats := ComputeEnrollmentStats(state, nil, targets())

	assert.Equal(t, int64(364), stats.Enrollments)
	assert.Equal(t, 3640000.0, stats.Revenue)
	assert.Equal(t, 97.1, stats.GoalProgress)
	assert.Equal(t, int64(1), stats.RecordDifference)
	assert.Equal(t, updated, stats.LastUpdated)
	assert.Empty(t, stats.Timeline)
}

func TestComputeEnrollmentStats_NilStateUsesBaseline(t *testing.T) {
	stats := ComputeEnrollmentStats(nil, nil, targets())

	assert.Equal(t, int64(318), stats.Enrollments)
	assert.Equal(t, 3180000.0, stats.Revenue)
	assert.Equal(t, 84.8, stats.GoalProgress)
	assert.Equal(t, int64(-45), stats.RecordDifference)
}

func TestGoalProgress(t *testing.T) {
	assert.Equal(t, 0.0, GoalProgress(10, 0))
	assert.Equal(t, 100.0, GoalProgress(375, 375))
	assert.Equal(t, 33.3, GoalProgress(1, 3))
	assert.Equal(t, 66.7, GoalProgress(2, 3))
}

func TestChartTimeline(t *testing.T) {
	base := time.Date(2026, 2, 20, 15, 0, 0, 0, time.UTC)
	entries := []domain.TimelineEntry{
		{Date: "2026-02-20", MetricValueAfter: 320, Label: "10:00 AM CT", Source: domain.SourceWebhook, RecordedAt: base.Add(time.Hour)},
		{Date: "2026-02-20", MetricValueAfter: 319, RecordedAt: base},
		{Date: "2026-02-20", MetricValueAfter: 321, Label: "11:00 AM CT", Source: domain.SourceWebhook, RecordedAt: base.Add(time.Hour)},
	}

	points := ChartTimeline(entries)

	require.Len(t, points, 3)
	assert.Equal(t, ChartPoint{Date: "2026-02-20", Enrollments: 319, Time: UnknownTimeLabel, Source: "manual"}, points[0])
	// equal timestamps keep insertion order
	assert.Equal(t, int64(320), points[1].Enrollments)
	assert.Equal(t, int64(321), points[2].Enrollments)
	assert.Equal(t, "webhook", points[2].Source)

	// input is left untouched
	assert.Equal(t, int64(320), entries[0].MetricValueAfter)
}
