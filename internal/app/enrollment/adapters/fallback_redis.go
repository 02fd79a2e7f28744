package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/metrics"
)

var (
	_ contracts.FallbackRecorder = (*RedisFallbackRecorder)(nil)
	_ contracts.FallbackSource   = (*RedisFallbackRecorder)(nil)
)

const DefaultFallbackKey = "enrollment:fallback"

// RedisFallbackRecorder pushes events the ledger could not store onto a Redis list
type RedisFallbackRecorder struct {
	client  redis.UniversalClient
	key     string
	clock   domain.Clock
	log     zerolog.Logger
	timeout time.Duration
}

// NewRedisFallbackRecorder creates a recorder writing to the given list key
func NewRedisFallbackRecorder(client redis.UniversalClient, key string, clock domain.Clock, log zerolog.Logger) *RedisFallbackRecorder {
	if key == "" {
		key = DefaultFallbackKey
	}
	return &RedisFallbackRecorder{
		client:  client,
		key:     key,
		clock:   clock,
		log:     log.With().Str("sink", "redis").Logger(),
		timeout: 2 * time.Second,
	}
}

// Record appends the event; failures are logged and counted, never returned
func (r *RedisFallbackRecorder) Record(ctx context.Context, event domain.Event, attempted domain.Operation, cause error) {
	rec := newFallbackRecord(event, attempted, cause, r.clock)
	b, err := json.Marshal(rec)
	if err != nil {
		r.log.Error().Err(err).Str("order_id", event.OrderID).Msg("encode fallback record")
		metrics.FallbackRecords.WithLabelValues("redis", "error").Inc()
		return
	}

	// The caller's context may already be spent on the failed store call.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.client.LPush(pushCtx, r.key, b).Err(); err != nil {
		r.log.Error().Err(err).
			Str("order_id", event.OrderID).
			Str("event_type", string(event.Type)).
			Msg("redis fallback push failed")
		metrics.FallbackRecords.WithLabelValues("redis", "error").Inc()
		return
	}
	metrics.FallbackRecords.WithLabelValues("redis", "ok").Inc()
}

// Pending returns the recorded events oldest first
func (r *RedisFallbackRecorder) Pending(ctx context.Context) ([]domain.FallbackRecord, error) {
	values, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read fallback list %s: %w", r.key, err)
	}

	records := make([]domain.FallbackRecord, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		rec, err := decodeFallbackRecord([]byte(values[i]))
		if err != nil {
			r.log.Warn().Err(err).Int("index", i).Msg("skipping malformed fallback record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
