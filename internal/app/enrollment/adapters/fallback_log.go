package adapters

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/metrics"
)

var _ contracts.FallbackRecorder = LogFallbackRecorder{}

// LogFallbackRecorder only logs. Replays use it so a failed retry is not queued twice.
type LogFallbackRecorder struct {
	Log zerolog.Logger
}

func (l LogFallbackRecorder) Record(ctx context.Context, event domain.Event, attempted domain.Operation, cause error) {
	l.Log.Error().Err(cause).
		Str("sink", "log").
		Str("order_id", event.OrderID).
		Str("event_type", string(event.Type)).
		Str("operation", string(attempted)).
		Msg("event not applied")
	metrics.FallbackRecords.WithLabelValues("log", "ok").Inc()
}
