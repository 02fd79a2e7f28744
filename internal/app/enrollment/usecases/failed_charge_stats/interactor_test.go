package failed_charge_stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/repo"
)

// MockFailedChargeRepository is a mock implementation of FailedChargeRepository
type MockFailedChargeRepository struct {
	mock.Mock
}

func (m *MockFailedChargeRepository) ListFailedCharges(ctx context.Context) ([]domain.FailedCharge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FailedCharge), args.Error(1)
}

func (m *MockFailedChargeRepository) CountCustomers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestExecute_Aggregates(t *testing.T) {
	store := repo.NewMemoryLedgerStore(0, domain.FixedClock{FixedTime: time.Now()})
	store.SeedFailedCharges([]domain.FailedCharge{
		{ID: "fc1", FailedAmount: decimal.NewFromInt(100), RecoveryStatus: domain.RecoveryResolved, PriorityLevel: domain.PriorityHigh},
		{ID: "fc2", FailedAmount: decimal.NewFromInt(50), RecoveryStatus: domain.RecoveryPending},
	}, 4)

	stats, err := NewInteractor(store, 0).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFailedCharges)
	assert.Equal(t, 150.0, stats.TotalAtRisk)
	assert.Equal(t, 50.0, stats.RecoveryRate)
	assert.Equal(t, 75.0, stats.AverageFailedAmount)
	assert.Equal(t, 4, stats.TotalCustomers)
	assert.Equal(t, 1, stats.PriorityBreakdown.Medium)
}

func TestExecute_ListFailure(t *testing.T) {
	mockRepo := new(MockFailedChargeRepository)
	mockRepo.On("ListFailedCharges", mock.Anything).Return(nil, domain.ErrStoreUnavailable)

	_, err := NewInteractor(mockRepo, time.Second).Execute(context.Background())

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	mockRepo.AssertNotCalled(t, "CountCustomers", mock.Anything)
}

func TestExecute_CountFailure(t *testing.T) {
	mockRepo := new(MockFailedChargeRepository)
	boom := errors.New("table missing")
	mockRepo.On("ListFailedCharges", mock.Anything).Return([]domain.FailedCharge{}, nil)
	mockRepo.On("CountCustomers", mock.Anything).Return(0, boom)

	_, err := NewInteractor(mockRepo, time.Second).Execute(context.Background())

	assert.ErrorIs(t, err, boom)
	mockRepo.AssertExpectations(t)
}

func TestList_AppliesDefaults(t *testing.T) {
	mockRepo := new(MockFailedChargeRepository)
	mockRepo.On("ListFailedCharges", mock.Anything).Return([]domain.FailedCharge{
		{ID: "fc1", RecoveryStatus: "", PriorityLevel: ""},
		{ID: "fc2", RecoveryStatus: "Contacted", PriorityLevel: "low"},
	}, nil)

	charges, err := NewInteractor(mockRepo, time.Second).List(context.Background())

	require.NoError(t, err)
	require.Len(t, charges, 2)
	assert.Equal(t, domain.RecoveryPending, charges[0].RecoveryStatus)
	assert.Equal(t, domain.PriorityMedium, charges[0].PriorityLevel)
	assert.Equal(t, domain.RecoveryContacted, charges[1].RecoveryStatus)
	assert.Equal(t, domain.PriorityLow, charges[1].PriorityLevel)
}
