package adapters

import (
	"context"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

var _ contracts.FallbackRecorder = MultiFallbackRecorder(nil)

// MultiFallbackRecorder writes every record to each sink in order
type MultiFallbackRecorder []contracts.FallbackRecorder

func (m MultiFallbackRecorder) Record(ctx context.Context, event domain.Event, attempted domain.Operation, cause error) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, event, attempted, cause)
		}
	}
}
