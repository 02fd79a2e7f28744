package apply_event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/metrics"
)

// Reason is the terminal state of one event in the ledger
type Reason string

const (
	ReasonApplied          Reason = "applied"
	ReasonIgnored          Reason = "ignored"
	ReasonDuplicate        Reason = "duplicate"
	ReasonStoreUnavailable Reason = "store_unavailable"
	ReasonRetriesExhausted Reason = "retries_exhausted"
)

const (
	DefaultMaxAttempts  = 5
	DefaultStoreTimeout = 5 * time.Second
)

// Result describes what applying an event did to the ledger
type Result struct {
	NewValue  int64            `json:"newValue"`
	Applied   bool             `json:"applied"`
	Reason    Reason           `json:"reason"`
	Operation domain.Operation `json:"operation"`
	Anomaly   string           `json:"anomaly,omitempty"`
	// NeedsReconciliation is set when the event sits in the fallback sink
	NeedsReconciliation bool `json:"needsReconciliation,omitempty"`
}

// Config holds the ledger tuning knobs
type Config struct {
	MetricName   string
	MaxAttempts  int
	StoreTimeout time.Duration
}

// Interactor applies classified webhook events to the enrollment ledger
type Interactor struct {
	store      contracts.LedgerStore
	fallback   contracts.FallbackRecorder
	classifier *domain.Classifier
	clock      domain.Clock
	cfg        Config
	log        zerolog.Logger
}

// NewInteractor creates a new apply event interactor
func NewInteractor(store contracts.LedgerStore, fallback contracts.FallbackRecorder, classifier *domain.Classifier, clock domain.Clock, cfg Config, log zerolog.Logger) *Interactor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	return &Interactor{
		store:      store,
		fallback:   fallback,
		classifier: classifier,
		clock:      clock,
		cfg:        cfg,
		log:        log,
	}
}

// Execute classifies the event and applies it at most once.
//
// Store outages never surface as errors: the event goes to the fallback recorder and
// the result is flagged for reconciliation. An error is returned only for invalid
// events and for store faults the ledger cannot classify.
func (i *Interactor) Execute(ctx context.Context, event domain.Event) (Result, error) {
	if err := event.Validate(); err != nil {
		return Result{}, err
	}

	class := i.classifier.Classify(event)
	log := i.log.With().
		Str("event_type", string(event.Type)).
		Str("order_id", event.OrderID).
		Str("operation", string(class.Operation)).
		Logger()

	// 1. Ignored events only leave an audit record
	if class.Operation == domain.OpIgnore {
		log.Debug().Str("reason", class.Reason).Msg("event ignored")
		result := Result{Reason: ReasonIgnored, Operation: domain.OpIgnore}
		if err := i.recordRaw(ctx, event, class); err != nil {
			if isUnavailable(err) {
				i.fallback.Record(ctx, event, domain.OpIgnore, err)
				result.NeedsReconciliation = true
			} else {
				log.Error().Err(err).Msg("failed to record ignored event")
			}
		}
		return i.finish(event, result), nil
	}

	// 2. Fast-path dedup; the CAS below rejects duplicates that race past it
	applied, err := i.isApplied(ctx, event.Key())
	if err != nil {
		return i.degrade(ctx, log, event, class.Operation, err)
	}
	if applied {
		log.Info().Msg("duplicate delivery skipped")
		i.recordRawBestEffort(ctx, log, event, class)
		return i.finish(event, Result{Reason: ReasonDuplicate, Operation: class.Operation}), nil
	}

	// 3-4. Read, compute, compare-and-set with bounded retries
	for attempt := 1; attempt <= i.cfg.MaxAttempts; attempt++ {
		state, err := i.read(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrTransientStore) {
				metrics.CASRetries.Inc()
				continue
			}
			return i.degrade(ctx, log, event, class.Operation, err)
		}

		next, clamped, err := domain.NextValue(state.MetricValue, class.Operation)
		if err != nil {
			return Result{}, err
		}

		now := i.clock.Now()
		meta := domain.ChangeMetadata{
			Key:       event.Key(),
			Action:    class.Operation,
			UpdatedBy: "webhook:" + event.Key().String(),
			At:        now,
		}

		entry := i.timelineEntry(event, class, next, clamped, now)

		err = i.compareAndSet(ctx, state.MetricValue, next, meta, entry)
		switch {
		case err == nil:
			return i.committed(ctx, log, event, class, state.MetricValue, next, clamped), nil
		case errors.Is(err, domain.ErrDuplicateEvent):
			log.Info().Msg("duplicate rejected by store")
			i.recordRawBestEffort(ctx, log, event, class)
			return i.finish(event, Result{Reason: ReasonDuplicate, Operation: class.Operation}), nil
		case errors.Is(err, domain.ErrCASConflict), errors.Is(err, domain.ErrTransientStore):
			metrics.CASRetries.Inc()
			log.Debug().Err(err).Int("attempt", attempt).Msg("compare-and-set conflict, retrying")
			continue
		default:
			return i.degrade(ctx, log, event, class.Operation, err)
		}
	}

	cause := fmt.Errorf("%w: compare-and-set lost %d times", domain.ErrTransientStore, i.cfg.MaxAttempts)
	log.Warn().Err(cause).Msg("ledger retries exhausted, event sent to fallback")
	i.fallback.Record(ctx, event, class.Operation, cause)
	return i.finish(event, Result{
		Reason:              ReasonRetriesExhausted,
		Operation:           class.Operation,
		NeedsReconciliation: true,
	}), nil
}

// timelineEntry is the history row committed together with the counter change
func (i *Interactor) timelineEntry(event domain.Event, class domain.Classification, next int64, clamped bool, now time.Time) domain.TimelineEntry {
	entry := domain.TimelineEntry{
		ID:               uuid.New().String(),
		MetricName:       i.cfg.MetricName,
		Date:             domain.EntryDate(now),
		MetricValueAfter: next,
		Label:            domain.TimeLabel(now),
		Source:           domain.SourceWebhook,
		Action:           class.Operation,
		OrderID:          event.OrderID,
		RecordedAt:       now,
	}
	if clamped {
		entry.Anomaly = domain.AnomalyClampedAtZero
	}
	return entry
}

func (i *Interactor) committed(ctx context.Context, log zerolog.Logger, event domain.Event, class domain.Classification, previous, next int64, clamped bool) Result {
	result := Result{
		NewValue:  next,
		Applied:   true,
		Reason:    ReasonApplied,
		Operation: class.Operation,
	}
	if clamped {
		result.Anomaly = domain.AnomalyClampedAtZero
		metrics.Anomalies.WithLabelValues(domain.AnomalyClampedAtZero).Inc()
		log.Warn().Int64("value", previous).Msg("decrement clamped at zero")
	}

	log.Info().Int64("from", previous).Int64("to", next).Msg("enrollment ledger updated")
	i.recordRawBestEffort(ctx, log, event, class)
	return i.finish(event, result)
}

// degrade handles a store failure. Unavailability is acknowledged and the event goes to
// the fallback recorder. Any other fault is returned so the platform redelivers; no
// fallback copy is kept for it since the redelivery is the retry.
func (i *Interactor) degrade(ctx context.Context, log zerolog.Logger, event domain.Event, op domain.Operation, err error) (Result, error) {
	if isUnavailable(err) {
		i.fallback.Record(ctx, event, op, err)
		log.Warn().Err(err).Msg("ledger store unavailable, event sent to fallback")
		return i.finish(event, Result{
			Reason:              ReasonStoreUnavailable,
			Operation:           op,
			NeedsReconciliation: true,
		}), nil
	}
	log.Error().Err(err).Msg("unexpected ledger store failure")
	return Result{Operation: op}, fmt.Errorf("apply %s: %w", event.Key(), err)
}

func (i *Interactor) finish(event domain.Event, result Result) Result {
	eventType := string(event.Type)
	if !event.Type.Known() {
		eventType = "unknown"
	}
	metrics.WebhookEvents.WithLabelValues(eventType, string(result.Reason)).Inc()
	return result
}

func (i *Interactor) read(ctx context.Context) (domain.LedgerState, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.cfg.StoreTimeout)
	defer cancel()
	return i.store.Read(callCtx, i.cfg.MetricName)
}

func (i *Interactor) compareAndSet(ctx context.Context, expected, next int64, meta domain.ChangeMetadata, entry domain.TimelineEntry) error {
	callCtx, cancel := context.WithTimeout(ctx, i.cfg.StoreTimeout)
	defer cancel()
	return i.store.CompareAndSet(callCtx, i.cfg.MetricName, expected, next, meta, entry)
}

func (i *Interactor) isApplied(ctx context.Context, key domain.IdempotencyKey) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.cfg.StoreTimeout)
	defer cancel()
	return i.store.IsApplied(callCtx, key)
}

func (i *Interactor) recordRaw(ctx context.Context, event domain.Event, class domain.Classification) error {
	callCtx, cancel := context.WithTimeout(ctx, i.cfg.StoreTimeout)
	defer cancel()
	return i.store.RecordRawEvent(callCtx, domain.RawEventRecord{
		ID:         uuid.New().String(),
		Event:      event,
		Operation:  class.Operation,
		Reason:     class.Reason,
		ReceivedAt: i.clock.Now(),
	})
}

func (i *Interactor) recordRawBestEffort(ctx context.Context, log zerolog.Logger, event domain.Event, class domain.Classification) {
	if err := i.recordRaw(ctx, event, class); err != nil {
		log.Warn().Err(err).Msg("failed to record raw event")
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
