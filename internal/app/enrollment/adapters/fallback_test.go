package adapters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

var clock = domain.FixedClock{FixedTime: time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)}

func testEvent(orderID string) domain.Event {
	return domain.Event{
		Type:        domain.EventOrderCompleted,
		OrderID:     orderID,
		ProductName: "MSM Live",
		OccurredAt:  clock.Now(),
	}
}

func TestFileFallbackRecorder_RecordAndPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fallback.jsonl")
	recorder := NewFileFallbackRecorder(path, clock, zerolog.Nop())
	ctx := context.Background()

	recorder.Record(ctx, testEvent("A1"), domain.OpIncrement, domain.ErrStoreUnavailable)
	recorder.Record(ctx, testEvent("A2"), domain.OpIncrement, errors.New("boom"))

	records, err := recorder.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].Event.OrderID)
	assert.Equal(t, domain.OpIncrement, records[0].AttemptedOperation)
	assert.Equal(t, domain.ErrStoreUnavailable.Error(), records[0].Error)
	assert.Equal(t, clock.Now(), records[0].RecordedAt)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "A2", records[1].Event.OrderID)
}

func TestFileFallbackRecorder_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.jsonl")
	recorder := NewFileFallbackRecorder(path, clock, zerolog.Nop())
	ctx := context.Background()

	recorder.Record(ctx, testEvent("A1"), domain.OpIncrement, nil)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	recorder.Record(ctx, testEvent("A2"), domain.OpDecrement, nil)

	records, err := recorder.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A2", records[1].Event.OrderID)
	assert.Empty(t, records[1].Error)
}

func TestFileFallbackRecorder_MissingFile(t *testing.T) {
	recorder := NewFileFallbackRecorder(filepath.Join(t.TempDir(), "none.jsonl"), clock, zerolog.Nop())

	records, err := recorder.Pending(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileFallbackRecorder_UnwritablePathDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// parent is a regular file, so the directory cannot be created
	recorder := NewFileFallbackRecorder(filepath.Join(blocker, "fallback.jsonl"), clock, zerolog.Nop())

	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), testEvent("A1"), domain.OpIncrement, nil)
	})
}

func TestRedisFallbackRecorder_UnreachableDoesNotPanic(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	recorder := NewRedisFallbackRecorder(client, "", clock, zerolog.Nop())
	assert.Equal(t, DefaultFallbackKey, recorder.key)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() {
		// an already canceled request context must not stop the push attempt
		recorder.Record(ctx, testEvent("A1"), domain.OpIncrement, domain.ErrStoreUnavailable)
	})

	_, err := recorder.Pending(context.Background())
	assert.Error(t, err)
}

// MockFallbackRecorder is a mock implementation of FallbackRecorder
type MockFallbackRecorder struct {
	mock.Mock
}

func (m *MockFallbackRecorder) Record(ctx context.Context, event domain.Event, attempted domain.Operation, cause error) {
	m.Called(ctx, event, attempted, cause)
}

func TestMultiFallbackRecorder_FansOut(t *testing.T) {
	first := new(MockFallbackRecorder)
	second := new(MockFallbackRecorder)
	event := testEvent("A1")
	cause := domain.ErrStoreUnavailable
	first.On("Record", mock.Anything, event, domain.OpIncrement, cause).Return().Once()
	second.On("Record", mock.Anything, event, domain.OpIncrement, cause).Return().Once()

	multi := MultiFallbackRecorder{first, nil, second}
	multi.Record(context.Background(), event, domain.OpIncrement, cause)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestLogFallbackRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		LogFallbackRecorder{Log: zerolog.Nop()}.Record(context.Background(), testEvent("A1"), domain.OpIncrement, nil)
	})
}
