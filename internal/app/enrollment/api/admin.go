package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/apply_event"
)

const (
	ActionSimulatePurchase = "simulate_purchase"
	ActionSimulateRefund   = "simulate_refund"
)

// AdminStatus is the webhook-admin introspection payload
type AdminStatus struct {
	Status             string    `json:"status"`
	CurrentEnrollments int64     `json:"currentEnrollments"`
	Source             string    `json:"source"`
	WebhookEndpoint    string    `json:"webhookEndpoint"`
	PendingFallback    *int      `json:"pendingFallback,omitempty"`
	LastChecked        time.Time `json:"lastChecked"`
}

// AdminRequest triggers a synthetic webhook event
type AdminRequest struct {
	Action   string                     `json:"action"`
	TestData map[string]json.RawMessage `json:"test_data"`
}

// AdminSimulation reports the synthetic event and what the ledger did with it
type AdminSimulation struct {
	Status    string             `json:"status"`
	Event     json.RawMessage    `json:"event"`
	Result    apply_event.Result `json:"result"`
	Timestamp time.Time          `json:"timestamp"`
}

func (h *handler) authorized(r *http.Request) bool {
	want := h.deps.AdminToken
	got := r.URL.Query().Get("token")
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func (h *handler) webhookAdmin(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.adminStatus(w, r)
	case http.MethodPost:
		h.adminSimulate(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *handler) adminStatus(w http.ResponseWriter, r *http.Request) {
	live := h.deps.LiveData.Execute(r.Context())
	status := AdminStatus{
		Status:             "webhook system active",
		CurrentEnrollments: live.Enrollments,
		Source:             live.Source,
		WebhookEndpoint:    "/api/webhook",
		LastChecked:        h.deps.Clock.Now(),
	}

	if h.deps.Fallback != nil {
		pending, err := h.deps.Fallback.Pending(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("could not count pending fallback records")
		} else {
			n := len(pending)
			status.PendingFallback = &n
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) adminSimulate(w http.ResponseWriter, r *http.Request) {
	var req AdminRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payload, label, err := simulatedPayload(req)
	if errors.Is(err, domain.ErrUnknownAdminAction) {
		writeJSONError(w, http.StatusBadRequest, "Unknown action")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := domain.ParseWebhook(payload, h.deps.Clock)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.deps.Ledger.Execute(r.Context(), event)
	if err != nil {
		h.log.Error().Err(err).Str("action", req.Action).Msg("admin simulation failed")
		writeJSONError(w, http.StatusInternalServerError, "Admin API error")
		return
	}

	h.log.Info().Str("action", req.Action).Str("order_id", event.OrderID).Msg("admin simulation applied")
	writeJSON(w, http.StatusOK, AdminSimulation{
		Status:    label,
		Event:     payload,
		Result:    result,
		Timestamp: h.deps.Clock.Now(),
	})
}

// simulatedPayload builds a webhook body for the action; test_data fields override the defaults
func simulatedPayload(req AdminRequest) ([]byte, string, error) {
	var (
		eventType domain.EventType
		orderID   string
		product   string
		label     string
	)
	switch req.Action {
	case ActionSimulatePurchase:
		eventType, orderID, product, label = domain.EventOrderCompleted, "test-"+uuid.New().String(), "MSM Live Test Purchase", "test purchase simulated"
	case ActionSimulateRefund:
		eventType, orderID, product, label = domain.EventOrderRefunded, "test-refund-"+uuid.New().String(), "MSM Live Test Refund", "test refund simulated"
	default:
		return nil, "", domain.ErrUnknownAdminAction
	}

	data := map[string]any{
		"order_id": orderID,
		"product":  map[string]string{"name": product},
		"customer": map[string]string{"email": "test@example.com"},
	}
	for k, v := range req.TestData {
		data[k] = v
	}

	body, err := json.Marshal(map[string]any{
		"event_type": eventType,
		"data":       data,
	})
	if err != nil {
		return nil, "", errors.Join(domain.ErrInvalidEvent, err)
	}
	return body, label, nil
}
