package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

var (
	_ contracts.LedgerStore            = (*MemoryLedgerStore)(nil)
	_ contracts.FailedChargeRepository = (*MemoryLedgerStore)(nil)
)

// MemoryLedgerStore keeps ledger state in process memory.
// It is meant for local runs and tests; state is lost on restart.
type MemoryLedgerStore struct {
	mu            sync.Mutex
	baseline      int64
	clock         domain.Clock
	states        map[string]domain.LedgerState
	timelines     map[string][]domain.TimelineEntry
	applied       map[domain.IdempotencyKey]struct{}
	rawEvents     []domain.RawEventRecord
	failedCharges []domain.FailedCharge
	customers     int
}

// NewMemoryLedgerStore creates an empty store; absent metrics resolve to baseline
func NewMemoryLedgerStore(baseline int64, clock domain.Clock) *MemoryLedgerStore {
	return &MemoryLedgerStore{
		baseline:  baseline,
		clock:     clock,
		states:    make(map[string]domain.LedgerState),
		timelines: make(map[string][]domain.TimelineEntry),
		applied:   make(map[domain.IdempotencyKey]struct{}),
	}
}

func (s *MemoryLedgerStore) Read(ctx context.Context, metricName string) (domain.LedgerState, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerState{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[metricName]; ok {
		return state, nil
	}
	return domain.BaselineState(metricName, s.baseline, s.clock.Now()), nil
}

func (s *MemoryLedgerStore) CompareAndSet(ctx context.Context, metricName string, expected, next int64, meta domain.ChangeMetadata, entry domain.TimelineEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applied[meta.Key]; ok {
		return domain.ErrDuplicateEvent
	}

	current := s.baseline
	if state, ok := s.states[metricName]; ok {
		current = state.MetricValue
	}
	if current != expected {
		return fmt.Errorf("%w: expected %d, found %d", domain.ErrCASConflict, expected, current)
	}
	if next < 0 {
		return fmt.Errorf("refusing to store negative value %d", next)
	}

	s.applied[meta.Key] = struct{}{}
	s.states[metricName] = domain.LedgerState{
		MetricName:    metricName,
		MetricValue:   next,
		LastUpdatedAt: meta.At,
		LastUpdatedBy: meta.UpdatedBy,
	}
	entry.MetricName = metricName
	entry.MetricValueAfter = next
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = meta.At
	}
	s.timelines[metricName] = append(s.timelines[metricName], entry)
	return nil
}

func (s *MemoryLedgerStore) AppendTimelineEntry(ctx context.Context, entry domain.TimelineEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timelines[entry.MetricName] = append(s.timelines[entry.MetricName], entry)
	return nil
}

func (s *MemoryLedgerStore) Timeline(ctx context.Context, metricName string) ([]domain.TimelineEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.TimelineEntry{}, s.timelines[metricName]...), nil
}

func (s *MemoryLedgerStore) IsApplied(ctx context.Context, key domain.IdempotencyKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.applied[key]
	return ok, nil
}

func (s *MemoryLedgerStore) RecordRawEvent(ctx context.Context, record domain.RawEventRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rawEvents = append(s.rawEvents, record)
	return nil
}

// RawEvents returns a copy of the recorded audit events
func (s *MemoryLedgerStore) RawEvents() []domain.RawEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RawEventRecord(nil), s.rawEvents...)
}

// SeedFailedCharges replaces the failed-charge collection and customer count
func (s *MemoryLedgerStore) SeedFailedCharges(charges []domain.FailedCharge, customers int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failedCharges = make([]domain.FailedCharge, 0, len(charges))
	for _, c := range charges {
		s.failedCharges = append(s.failedCharges, c.Normalize())
	}
	s.customers = customers
}

func (s *MemoryLedgerStore) ListFailedCharges(ctx context.Context) ([]domain.FailedCharge, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.FailedCharge{}, s.failedCharges...), nil
}

func (s *MemoryLedgerStore) CountCustomers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers, nil
}
