package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/apply_event"
)

const maxWebhookBody = 1 << 20

// WebhookResponse acknowledges a delivery
type WebhookResponse struct {
	Status    string             `json:"status"`
	EventType string             `json:"event_type"`
	Reason    apply_event.Reason `json:"reason,omitempty"`
}

// webhook receives payment platform events. A 200 means the ledger or the
// fallback sink holds the event; the platform may stop retrying.
func (h *handler) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	event, err := domain.ParseWebhook(body, h.deps.Clock)
	if err != nil {
		h.log.Warn().Err(err).Msg("rejected webhook payload")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info().
		Str("event_type", string(event.Type)).
		Str("order_id", event.OrderID).
		Msg("webhook received")

	result, err := h.deps.Ledger.Execute(r.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidEvent) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("order_id", event.OrderID).Msg("webhook processing failed")
		writeJSONError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{
		Status:    "success",
		EventType: string(event.Type),
		Reason:    result.Reason,
	})
}
