package adapters

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/metrics"
)

var (
	_ contracts.FallbackRecorder = (*FileFallbackRecorder)(nil)
	_ contracts.FallbackSource   = (*FileFallbackRecorder)(nil)
)

// FileFallbackRecorder appends events as JSON lines to a local file.
// The file lives on instance storage and may not survive a redeploy.
type FileFallbackRecorder struct {
	mu    sync.Mutex
	path  string
	clock domain.Clock
	log   zerolog.Logger
}

// NewFileFallbackRecorder creates a recorder appending to path
func NewFileFallbackRecorder(path string, clock domain.Clock, log zerolog.Logger) *FileFallbackRecorder {
	return &FileFallbackRecorder{
		path:  path,
		clock: clock,
		log:   log.With().Str("sink", "file").Str("path", path).Logger(),
	}
}

// Record appends the event; failures are logged and counted, never returned
func (f *FileFallbackRecorder) Record(ctx context.Context, event domain.Event, attempted domain.Operation, cause error) {
	rec := newFallbackRecord(event, attempted, cause, f.clock)
	if err := f.append(rec); err != nil {
		f.log.Error().Err(err).
			Str("order_id", event.OrderID).
			Str("event_type", string(event.Type)).
			Msg("file fallback append failed")
		metrics.FallbackRecords.WithLabelValues("file", "error").Inc()
		return
	}
	metrics.FallbackRecords.WithLabelValues("file", "ok").Inc()
}

func (f *FileFallbackRecorder) append(rec domain.FallbackRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode fallback record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create fallback dir: %w", err)
		}
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open fallback file: %w", err)
	}
	if _, err := file.Write(append(b, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("write fallback record: %w", err)
	}
	return file.Close()
}

// Pending returns the recorded events in the order they were written
func (f *FileFallbackRecorder) Pending(ctx context.Context) ([]domain.FallbackRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.FallbackRecord{}, nil
		}
		return nil, fmt.Errorf("open fallback file: %w", err)
	}
	defer file.Close()

	records := []domain.FallbackRecord{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		rec, err := decodeFallbackRecord(scanner.Bytes())
		if err != nil {
			f.log.Warn().Err(err).Int("line", line).Msg("skipping malformed fallback record")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan fallback file: %w", err)
	}
	return records, nil
}
