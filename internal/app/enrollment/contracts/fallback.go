package contracts

import (
	"context"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

// FallbackRecorder is a best-effort sink for events the ledger store could not take.
// Record never fails from the caller's point of view.
type FallbackRecorder interface {
	Record(ctx context.Context, event domain.Event, attempted domain.Operation, cause error)
}

// FallbackSource lets an operator read recorded events back for reconciliation
type FallbackSource interface {
	Pending(ctx context.Context) ([]domain.FallbackRecord, error)
}
