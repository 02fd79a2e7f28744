package contracts

import (
	"context"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

// LedgerStore defines durable storage for the enrollment ledger.
//
// Implementations must make CompareAndSet atomic with the idempotency marker for
// meta.Key and with the timeline entry: a second commit for the same key fails with
// domain.ErrDuplicateEvent even when both writers passed IsApplied, and a committed
// counter change always has its timeline entry. Connectivity failures are reported as
// domain.ErrStoreUnavailable.
type LedgerStore interface {
	// Read returns the current state, or the baseline state when none was written yet
	Read(ctx context.Context, metricName string) (domain.LedgerState, error)
	// CompareAndSet moves the metric from expected to next and appends entry in the same
	// commit; domain.ErrCASConflict on mismatch
	CompareAndSet(ctx context.Context, metricName string, expected, next int64, meta domain.ChangeMetadata, entry domain.TimelineEntry) error
	// AppendTimelineEntry adds a manual entry that does not move the counter
	AppendTimelineEntry(ctx context.Context, entry domain.TimelineEntry) error
	// Timeline returns the entries for a metric in insertion order
	Timeline(ctx context.Context, metricName string) ([]domain.TimelineEntry, error)
	IsApplied(ctx context.Context, key domain.IdempotencyKey) (bool, error)
	RecordRawEvent(ctx context.Context, record domain.RawEventRecord) error
}

// FailedChargeRepository reads the failed-charge collection
type FailedChargeRepository interface {
	ListFailedCharges(ctx context.Context) ([]domain.FailedCharge, error)
	CountCustomers(ctx context.Context) (int, error)
}
