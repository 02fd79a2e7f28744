package live_data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/repo"
)

// MockLedgerStore is a mock implementation of LedgerStore
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) Read(ctx context.Context, metricName string) (domain.LedgerState, error) {
	args := m.Called(ctx, metricName)
	return args.Get(0).(domain.LedgerState), args.Error(1)
}

func (m *MockLedgerStore) CompareAndSet(ctx context.Context, metricName string, expected, next int64, meta domain.ChangeMetadata, entry domain.TimelineEntry) error {
	return m.Called(ctx, metricName, expected, next, meta, entry).Error(0)
}

func (m *MockLedgerStore) AppendTimelineEntry(ctx context.Context, entry domain.TimelineEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLedgerStore) Timeline(ctx context.Context, metricName string) ([]domain.TimelineEntry, error) {
	args := m.Called(ctx, metricName)
	return args.Get(0).([]domain.TimelineEntry), args.Error(1)
}

func (m *MockLedgerStore) IsApplied(ctx context.Context, key domain.IdempotencyKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerStore) RecordRawEvent(ctx context.Context, record domain.RawEventRecord) error {
	return m.Called(ctx, record).Error(0)
}

var now = time.Date(2026, 2, 26, 18, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		MetricName:    "msm_enrollments",
		Tickets:       5680,
		TicketRevenue: 666134,
		Targets: analytics.EnrollmentTargets{
			Goal:                 375,
			RecordReference:      363,
			RevenuePerEnrollment: decimal.NewFromInt(10000),
			Baseline:             318,
		},
	}
}

func TestLiveData_FromStore(t *testing.T) {
	store := repo.NewMemoryLedgerStore(318, domain.FixedClock{FixedTime: now})
	updated := now.Add(-time.Minute)
	err := store.CompareAndSet(context.Background(), "msm_enrollments", 318, 319, domain.ChangeMetadata{
		Key: domain.IdempotencyKey{OrderID: "A1", EventType: domain.EventOrderCompleted},
		At:  updated,
	}, domain.TimelineEntry{ID: "e1", Source: domain.SourceWebhook, Action: domain.OpIncrement, OrderID: "A1"})
	assert.NoError(t, err)

	interactor := NewInteractor(store, domain.FixedClock{FixedTime: now}, testConfig(), zerolog.Nop())
	data := interactor.Execute(context.Background())

	assert.Equal(t, int64(5680), data.Tickets)
	assert.Equal(t, int64(666134), data.TicketRevenue)
	assert.Equal(t, int64(319), data.Enrollments)
	assert.Equal(t, 3190000.0, data.EnrollmentRevenue)
	assert.Equal(t, 85.1, data.GoalProgress)
	assert.Equal(t, int64(-44), data.RecordDifference)
	assert.Equal(t, updated, data.LastUpdated)
	assert.Equal(t, EventStatusLive, data.EventStatus)
	assert.Equal(t, now.Add(30*time.Second), data.NextUpdate)
	assert.Equal(t, SourceDatabase, data.Source)
	assert.Empty(t, data.Error)
}

func TestLiveData_FallbackWithoutHistory(t *testing.T) {
	mockStore := new(MockLedgerStore)
	mockStore.On("Read", mock.Anything, "msm_enrollments").
		Return(domain.LedgerState{}, domain.ErrStoreUnavailable)

	interactor := NewInteractor(mockStore, domain.FixedClock{FixedTime: now}, testConfig(), zerolog.Nop())
	data := interactor.Execute(context.Background())

	assert.Equal(t, SourceFallback, data.Source)
	assert.Equal(t, int64(318), data.Enrollments)
	assert.Equal(t, 3180000.0, data.EnrollmentRevenue)
	assert.Equal(t, now, data.LastUpdated)
	assert.Equal(t, domain.ErrStoreUnavailable.Error(), data.Error)
	mockStore.AssertExpectations(t)
}

func TestLiveData_LastKnownAfterOutage(t *testing.T) {
	mockStore := new(MockLedgerStore)
	good := domain.LedgerState{MetricName: "msm_enrollments", MetricValue: 340, LastUpdatedAt: now.Add(-time.Hour)}
	mockStore.On("Read", mock.Anything, "msm_enrollments").Return(good, nil).Once()
	mockStore.On("Read", mock.Anything, "msm_enrollments").
		Return(domain.LedgerState{}, errors.New("connection refused")).Once()

	interactor := NewInteractor(mockStore, domain.FixedClock{FixedTime: now}, testConfig(), zerolog.Nop())

	first := interactor.Execute(context.Background())
	assert.Equal(t, SourceDatabase, first.Source)

	second := interactor.Execute(context.Background())
	assert.Equal(t, SourceLastKnown, second.Source)
	assert.Equal(t, int64(340), second.Enrollments)
	assert.Equal(t, good.LastUpdatedAt, second.LastUpdated)
	assert.Equal(t, "connection refused", second.Error)
	mockStore.AssertExpectations(t)
}
