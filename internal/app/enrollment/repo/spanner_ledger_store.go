package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

var _ contracts.LedgerStore = (*SpannerLedgerStore)(nil)

const (
	stateTable    = "dashboard_state"
	timelineTable = "enrollment_timeline"
	appliedTable  = "applied_events"
	rawEventTable = "raw_events"
)

var (
	stateColumns    = []string{"metric_name", "metric_value", "last_updated", "last_updated_by"}
	appliedColumns  = []string{"order_id", "event_type", "metric_name", "action", "applied_at"}
	timelineColumns = []string{
		"metric_name", "recorded_at", "entry_id", "entry_date", "metric_value_after",
		"time_label", "event_source", "action", "order_id", "anomaly",
	}
	rawEventColumns = []string{
		"event_id", "event_type", "order_id", "product_name", "customer_email",
		"occurred_at", "operation", "reason", "payload", "received_at",
	}
)

// SpannerLedgerStore implements the ledger store using Cloud Spanner.
// Compare-and-set runs in a read-write transaction, which Spanner serializes.
type SpannerLedgerStore struct {
	client   *spanner.Client
	baseline int64
	clock    domain.Clock
}

// NewSpannerLedgerStore creates a ledger store; absent metrics resolve to baseline
func NewSpannerLedgerStore(client *spanner.Client, baseline int64, clock domain.Clock) *SpannerLedgerStore {
	return &SpannerLedgerStore{client: client, baseline: baseline, clock: clock}
}

// Read retrieves the metric state, falling back to the baseline when no row exists
func (r *SpannerLedgerStore) Read(ctx context.Context, metricName string) (domain.LedgerState, error) {
	defer observe("read", time.Now())

	row, err := r.client.Single().ReadRow(ctx, stateTable, spanner.Key{metricName}, stateColumns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return domain.BaselineState(metricName, r.baseline, r.clock.Now()), nil
		}
		return domain.LedgerState{}, mapSpannerError("read ledger state", err)
	}
	return decodeState(row)
}

// CompareAndSet moves the metric from expected to next. The idempotency marker and the
// timeline entry are written in the same transaction, so a duplicate commit is rejected
// by Spanner and the timeline cannot fall behind the counter. recorded_at is the commit
// timestamp, which orders the timeline by commit across instances.
func (r *SpannerLedgerStore) CompareAndSet(ctx context.Context, metricName string, expected, next int64, meta domain.ChangeMetadata, entry domain.TimelineEntry) error {
	defer observe("compare_and_set", time.Now())

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		_, err := txn.ReadRow(ctx, appliedTable, spanner.Key{meta.Key.OrderID, string(meta.Key.EventType)}, []string{"order_id"})
		if err == nil {
			return domain.ErrDuplicateEvent
		}
		if spanner.ErrCode(err) != codes.NotFound {
			return err
		}

		current := r.baseline
		row, err := txn.ReadRow(ctx, stateTable, spanner.Key{metricName}, stateColumns)
		switch {
		case err == nil:
			state, derr := decodeState(row)
			if derr != nil {
				return derr
			}
			current = state.MetricValue
		case spanner.ErrCode(err) != codes.NotFound:
			return err
		}

		if current != expected {
			return fmt.Errorf("%w: expected %d, found %d", domain.ErrCASConflict, expected, current)
		}

		return txn.BufferWrite([]*spanner.Mutation{
			spanner.Insert(appliedTable, appliedColumns, []interface{}{
				meta.Key.OrderID,
				string(meta.Key.EventType),
				metricName,
				string(meta.Action),
				meta.At,
			}),
			spanner.InsertOrUpdate(stateTable, stateColumns, []interface{}{
				metricName,
				next,
				meta.At,
				meta.UpdatedBy,
			}),
			spanner.Insert(timelineTable, timelineColumns, timelineValues(metricName, next, spanner.CommitTimestamp, entry)),
		})
	})
	if spanner.ErrCode(err) == codes.AlreadyExists {
		return domain.ErrDuplicateEvent
	}
	return mapSpannerError("compare and set", err)
}

// AppendTimelineEntry inserts one manual timeline row outside any counter change
func (r *SpannerLedgerStore) AppendTimelineEntry(ctx context.Context, entry domain.TimelineEntry) error {
	defer observe("append_timeline", time.Now())

	mutation := spanner.Insert(timelineTable, timelineColumns, timelineValues(entry.MetricName, entry.MetricValueAfter, entry.RecordedAt, entry))
	_, err := r.client.Apply(ctx, []*spanner.Mutation{mutation})
	return mapSpannerError("append timeline entry", err)
}

// Timeline returns all entries for a metric in insertion order
func (r *SpannerLedgerStore) Timeline(ctx context.Context, metricName string) ([]domain.TimelineEntry, error) {
	defer observe("timeline", time.Now())

	stmt := spanner.Statement{
		SQL: `
			SELECT metric_name, recorded_at, entry_id, entry_date, metric_value_after,
			       time_label, event_source, action, order_id, anomaly
			FROM enrollment_timeline
			WHERE metric_name = @metric_name
			ORDER BY recorded_at, entry_id
		`,
		Params: map[string]interface{}{
			"metric_name": metricName,
		},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	entries := []domain.TimelineEntry{}
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapSpannerError("query timeline", err)
		}

		var (
			entry                        domain.TimelineEntry
			label, source, orderID, anom spanner.NullString
			action                       string
		)
		if err := row.Columns(&entry.MetricName, &entry.RecordedAt, &entry.ID, &entry.Date,
			&entry.MetricValueAfter, &label, &source, &action, &orderID, &anom); err != nil {
			return nil, fmt.Errorf("decode timeline row: %w", err)
		}
		entry.Label = label.StringVal
		entry.Source = domain.Source(source.StringVal)
		entry.Action = domain.Operation(action)
		entry.OrderID = orderID.StringVal
		entry.Anomaly = anom.StringVal
		entries = append(entries, entry)
	}
	return entries, nil
}

// IsApplied checks the idempotency marker table
func (r *SpannerLedgerStore) IsApplied(ctx context.Context, key domain.IdempotencyKey) (bool, error) {
	defer observe("is_applied", time.Now())

	_, err := r.client.Single().ReadRow(ctx, appliedTable, spanner.Key{key.OrderID, string(key.EventType)}, []string{"order_id"})
	if err == nil {
		return true, nil
	}
	if spanner.ErrCode(err) == codes.NotFound {
		return false, nil
	}
	return false, mapSpannerError("check applied event", err)
}

// RecordRawEvent stores the audit copy of an event
func (r *SpannerLedgerStore) RecordRawEvent(ctx context.Context, record domain.RawEventRecord) error {
	defer observe("record_raw_event", time.Now())

	payload := string(record.Event.Raw)
	if payload == "" {
		b, err := json.Marshal(record.Event)
		if err != nil {
			return fmt.Errorf("encode raw event: %w", err)
		}
		payload = string(b)
	}

	mutation := spanner.Insert(rawEventTable, rawEventColumns, []interface{}{
		record.ID,
		string(record.Event.Type),
		record.Event.OrderID,
		record.Event.ProductName,
		record.Event.CustomerEmail,
		record.Event.OccurredAt,
		string(record.Operation),
		record.Reason,
		payload,
		record.ReceivedAt,
	})
	_, err := r.client.Apply(ctx, []*spanner.Mutation{mutation})
	return mapSpannerError("record raw event", err)
}

func timelineValues(metricName string, valueAfter int64, recordedAt time.Time, entry domain.TimelineEntry) []interface{} {
	return []interface{}{
		metricName,
		recordedAt,
		entry.ID,
		entry.Date,
		valueAfter,
		entry.Label,
		string(entry.Source),
		string(entry.Action),
		entry.OrderID,
		entry.Anomaly,
	}
}

func decodeState(row *spanner.Row) (domain.LedgerState, error) {
	var (
		state     domain.LedgerState
		updatedBy spanner.NullString
	)
	if err := row.Columns(&state.MetricName, &state.MetricValue, &state.LastUpdatedAt, &updatedBy); err != nil {
		return domain.LedgerState{}, fmt.Errorf("decode ledger state: %w", err)
	}
	state.LastUpdatedBy = updatedBy.StringVal
	if state.MetricValue < 0 {
		return domain.LedgerState{}, errors.New("ledger state holds a negative value")
	}
	return state, nil
}
