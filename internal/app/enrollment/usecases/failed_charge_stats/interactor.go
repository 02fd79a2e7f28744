package failed_charge_stats

import (
	"context"
	"fmt"
	"time"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

// Interactor serves the failed-charge views of the dashboard
type Interactor struct {
	repo    contracts.FailedChargeRepository
	timeout time.Duration
}

// NewInteractor creates a new failed charge stats interactor
func NewInteractor(repo contracts.FailedChargeRepository, timeout time.Duration) *Interactor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Interactor{repo: repo, timeout: timeout}
}

// Execute aggregates the failed-charge collection. Store errors are returned.
func (i *Interactor) Execute(ctx context.Context) (analytics.FailedChargeStats, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	charges, err := i.repo.ListFailedCharges(ctx)
	if err != nil {
		return analytics.FailedChargeStats{}, fmt.Errorf("fetch failed charges: %w", err)
	}
	customers, err := i.repo.CountCustomers(ctx)
	if err != nil {
		return analytics.FailedChargeStats{}, fmt.Errorf("fetch subscriptions: %w", err)
	}
	return analytics.ComputeFailedChargeStats(charges, customers), nil
}

// List returns the failed charges newest first with defaults applied
func (i *Interactor) List(ctx context.Context) ([]domain.FailedCharge, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	charges, err := i.repo.ListFailedCharges(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch failed charges: %w", err)
	}
	out := make([]domain.FailedCharge, 0, len(charges))
	for _, c := range charges {
		out = append(out, c.Normalize())
	}
	return out, nil
}
