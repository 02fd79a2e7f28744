package replay_fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/apply_event"
)

// Ledger applies one event; satisfied by apply_event.Interactor
type Ledger interface {
	Execute(ctx context.Context, event domain.Event) (apply_event.Result, error)
}

// Report counts what a replay did
type Report struct {
	Pending    int `json:"pending"`
	Applied    int `json:"applied"`
	Duplicates int `json:"duplicates"`
	Ignored    int `json:"ignored"`
	Failed     int `json:"failed"`
}

// Interactor re-applies recorded fallback events through the ledger.
// Replaying twice is safe: events already applied come back as duplicates.
type Interactor struct {
	source contracts.FallbackSource
	ledger Ledger
	log    zerolog.Logger
}

// NewInteractor creates a new replay interactor
func NewInteractor(source contracts.FallbackSource, ledger Ledger, log zerolog.Logger) *Interactor {
	return &Interactor{source: source, ledger: ledger, log: log}
}

// Execute replays every pending record oldest first.
// It stops early with domain.ErrStoreUnavailable when the store is still down.
func (i *Interactor) Execute(ctx context.Context) (Report, error) {
	records, err := i.source.Pending(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load fallback records: %w", err)
	}

	report := Report{Pending: len(records)}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		log := i.log.With().Str("record_id", rec.ID).Str("order_id", rec.Event.OrderID).Logger()
		result, err := i.ledger.Execute(ctx, rec.Event)
		if err != nil {
			report.Failed++
			log.Error().Err(err).Msg("replay failed")
			if errors.Is(err, domain.ErrInvalidEvent) {
				continue
			}
			return report, err
		}

		switch result.Reason {
		case apply_event.ReasonApplied:
			report.Applied++
		case apply_event.ReasonDuplicate:
			report.Duplicates++
		case apply_event.ReasonIgnored:
			report.Ignored++
		case apply_event.ReasonStoreUnavailable:
			report.Failed++
			return report, fmt.Errorf("replay %s: %w", rec.ID, domain.ErrStoreUnavailable)
		default:
			// applied but flagged, or retries exhausted
			if result.Applied {
				report.Applied++
			} else {
				report.Failed++
			}
			log.Warn().Str("reason", string(result.Reason)).Msg("replay needs attention")
		}
	}

	i.log.Info().
		Int("pending", report.Pending).
		Int("applied", report.Applied).
		Int("duplicates", report.Duplicates).
		Int("failed", report.Failed).
		Msg("fallback replay finished")
	return report, nil
}
