package adapters

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

func newFallbackRecord(event domain.Event, attempted domain.Operation, cause error, clock domain.Clock) domain.FallbackRecord {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return domain.FallbackRecord{
		ID:                 uuid.New().String(),
		Event:              event,
		AttemptedOperation: attempted,
		Error:              msg,
		RecordedAt:         clock.Now(),
	}
}

func decodeFallbackRecord(b []byte) (domain.FallbackRecord, error) {
	var rec domain.FallbackRecord
	err := json.Unmarshal(b, &rec)
	return rec, err
}
