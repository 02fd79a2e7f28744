package domain

import "time"

// RawEventRecord is the audit copy of every received event
type RawEventRecord struct {
	ID         string    `json:"id"`
	Event      Event     `json:"event"`
	Operation  Operation `json:"operation"`
	Reason     string    `json:"reason"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// FallbackRecord is what the fallback recorder keeps when the ledger store could not take an event
type FallbackRecord struct {
	ID                 string    `json:"id"`
	Event              Event     `json:"event"`
	AttemptedOperation Operation `json:"attemptedOperation"`
	Error              string    `json:"error"`
	RecordedAt         time.Time `json:"recordedAt"`
}
