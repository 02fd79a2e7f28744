package historical_data

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/repo"
)

var now = time.Date(2026, 2, 26, 18, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		MetricName: "msm_enrollments",
		Tickets:    5680,
		Targets: analytics.EnrollmentTargets{
			Goal:                 375,
			RecordReference:      363,
			RevenuePerEnrollment: decimal.NewFromInt(10000),
			Baseline:             318,
		},
	}
}

func TestHistoricalData_WithTimeline(t *testing.T) {
	ctx := context.Background()
	clock := domain.FixedClock{FixedTime: now}
	store := repo.NewMemoryLedgerStore(318, clock)

	require.NoError(t, store.CompareAndSet(ctx, "msm_enrollments", 318, 319, domain.ChangeMetadata{
		Key: domain.IdempotencyKey{OrderID: "A1", EventType: domain.EventOrderCompleted},
		At:  now,
	}, domain.TimelineEntry{
		ID:               "e1",
		MetricName:       "msm_enrollments",
		Date:             domain.EntryDate(now),
		MetricValueAfter: 319,
		Label:            domain.TimeLabel(now),
		Source:           domain.SourceWebhook,
		Action:           domain.OpIncrement,
		OrderID:          "A1",
		RecordedAt:       now,
	}))

	data := NewInteractor(store, clock, testConfig(), zerolog.Nop()).Execute(ctx)

	assert.Equal(t, SourceDatabase, data.Source)
	assert.Empty(t, data.Error)
	assert.Equal(t, September2025, data.Events.September2025)
	assert.Equal(t, February2025, data.Events.February2025)

	live := data.Events.February2026
	assert.Equal(t, int64(5680), live.TotalTickets)
	assert.Equal(t, int64(319), live.TotalEnrollments)
	assert.Equal(t, 3190000.0, live.TotalRevenue)
	assert.Equal(t, 5.6, live.ConversionRate)
	assert.Equal(t, StatusTrackingToGoal, live.Status)
	require.NotNil(t, live.RecordDifference)
	assert.Equal(t, int64(-44), *live.RecordDifference)
	require.Len(t, live.Timeline, 1)
	assert.Equal(t, analytics.ChartPoint{Date: "2026-02-26", Enrollments: 319, Time: "12:00 PM CT", Source: "webhook"}, live.Timeline[0])
}

func TestHistoricalData_StoreFailure(t *testing.T) {
	store := repo.NewMemoryLedgerStore(318, domain.FixedClock{FixedTime: now})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := NewInteractor(store, domain.FixedClock{FixedTime: now}, testConfig(), zerolog.Nop()).Execute(ctx)

	assert.Equal(t, SourceFallback, data.Source)
	assert.NotEmpty(t, data.Error)
	assert.Equal(t, now, data.LastUpdated)
	assert.Equal(t, int64(318), data.Events.February2026.TotalEnrollments)
	assert.Empty(t, data.Events.February2026.Timeline)
	assert.Equal(t, int64(363), data.Events.September2025.TotalEnrollments)
}

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 5.6, conversionRate(318, 5680))
	assert.Equal(t, 34.4, conversionRate(336, 977))
	assert.Equal(t, 0.0, conversionRate(10, 0))
}
