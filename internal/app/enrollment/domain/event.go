package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// createdAtLayouts are tried in order; the platform has sent both
var createdAtLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05"}

// EventType is the lifecycle event name sent by the payment platform
type EventType string

const (
	EventOrderCompleted      EventType = "order.completed"
	EventOrderRefunded       EventType = "order.refunded"
	EventSubscriptionCharged EventType = "subscription.charged"
	EventChargeFailed        EventType = "charge.failed"
)

// Known reports whether the platform documents this event type
func (t EventType) Known() bool {
	switch t {
	case EventOrderCompleted, EventOrderRefunded, EventSubscriptionCharged, EventChargeFailed:
		return true
	}
	return false
}

// IdempotencyKey identifies one lifecycle action on one order.
// A refund and its original order share an order id but not a key.
type IdempotencyKey struct {
	OrderID   string
	EventType EventType
}

func (k IdempotencyKey) String() string {
	return k.OrderID + ":" + string(k.EventType)
}

// Event is a parsed webhook delivery
type Event struct {
	Type           EventType       `json:"event_type"`
	OrderID        string          `json:"order_id"`
	ProductName    string          `json:"product_name"`
	CustomerEmail  string          `json:"customer_email"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	ChargeID       string          `json:"charge_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

func (e Event) Key() IdempotencyKey {
	return IdempotencyKey{OrderID: e.OrderID, EventType: e.Type}
}

// WebhookPayload is the envelope posted by the payment platform
type WebhookPayload struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type webhookData struct {
	OrderID        flexString `json:"order_id"`
	SubscriptionID flexString `json:"subscription_id"`
	ChargeID       flexString `json:"charge_id"`
	Product        struct {
		Name string `json:"name"`
	} `json:"product"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	CreatedAt json.RawMessage `json:"created_at"`
}

// flexString accepts ids sent either as JSON strings or numbers
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// ParseWebhook decodes and validates a raw webhook body.
// Unknown event types are accepted so they can be recorded and ignored.
func ParseWebhook(body []byte, clock Clock) (Event, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Event{}, fmt.Errorf("%w: malformed JSON body: %v", ErrInvalidEvent, err)
	}

	eventType := strings.TrimSpace(payload.EventType)
	if eventType == "" {
		return Event{}, fmt.Errorf("%w: event_type is required", ErrInvalidEvent)
	}

	var data webhookData
	if len(payload.Data) > 0 && !bytes.Equal(bytes.TrimSpace(payload.Data), []byte("null")) {
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			return Event{}, fmt.Errorf("%w: malformed data: %v", ErrInvalidEvent, err)
		}
	}

	event := Event{
		Type:           EventType(eventType),
		OrderID:        strings.TrimSpace(string(data.OrderID)),
		ProductName:    data.Product.Name,
		CustomerEmail:  data.Customer.Email,
		SubscriptionID: string(data.SubscriptionID),
		ChargeID:       string(data.ChargeID),
		OccurredAt:     clock.Now(),
		Raw:            json.RawMessage(append([]byte(nil), body...)),
	}
	if at, ok := parseCreatedAt(data.CreatedAt); ok {
		event.OccurredAt = at
	}

	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// parseCreatedAt reads created_at leniently. A missing or unreadable timestamp is
// not an error; the caller keeps the receive time instead.
func parseCreatedAt(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Debug().Str("created_at", string(raw)).Msg("created_at is not a string, using receive time")
		return time.Time{}, false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if at, err := time.Parse(layout, value); err == nil && !at.IsZero() {
			return at.UTC(), true
		}
	}
	log.Debug().Str("created_at", value).Msg("unrecognised created_at format, using receive time")
	return time.Time{}, false
}

// Validate checks the fields the ledger relies on
func (e Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: event_type is required", ErrInvalidEvent)
	}
	if (e.Type == EventOrderCompleted || e.Type == EventOrderRefunded) && e.OrderID == "" {
		return fmt.Errorf("%w: data.order_id is required for %s", ErrInvalidEvent, e.Type)
	}
	return nil
}
