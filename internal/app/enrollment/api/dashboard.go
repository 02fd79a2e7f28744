package api

import (
	"net/http"
	"time"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

func (h *handler) liveData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	noCache(w)
	writeJSON(w, http.StatusOK, h.deps.LiveData.Execute(r.Context()))
}

func (h *handler) historicalData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	noCache(w)
	writeJSON(w, http.StatusOK, h.deps.Historical.Execute(r.Context()))
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	stats, err := h.deps.FailedCharges.Execute(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("analytics query failed")
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// failedChargeView is the list row the dashboard renders; amounts are plain numbers
type failedChargeView struct {
	ID               string    `json:"id"`
	SubscriptionID   string    `json:"subscriptionId"`
	CustomerName     string    `json:"customerName"`
	CustomerEmail    string    `json:"customerEmail"`
	FailedAmount     float64   `json:"failedAmount"`
	FailureReason    string    `json:"failureReason"`
	FailureDate      time.Time `json:"failureDate"`
	RecoveryStatus   string    `json:"recoveryStatus"`
	PriorityLevel    string    `json:"priorityLevel"`
	RecoveryNotes    string    `json:"recoveryNotes"`
	TotalPaid        float64   `json:"totalPaid"`
	RemainingBalance float64   `json:"remainingBalance"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func newFailedChargeView(c domain.FailedCharge) failedChargeView {
	return failedChargeView{
		ID:               c.ID,
		SubscriptionID:   c.SubscriptionID,
		CustomerName:     c.CustomerName,
		CustomerEmail:    c.CustomerEmail,
		FailedAmount:     c.FailedAmount.InexactFloat64(),
		FailureReason:    c.FailureReason,
		FailureDate:      c.FailureDate,
		RecoveryStatus:   string(c.RecoveryStatus),
		PriorityLevel:    string(c.PriorityLevel),
		RecoveryNotes:    c.RecoveryNotes,
		TotalPaid:        c.TotalPaid.InexactFloat64(),
		RemainingBalance: c.RemainingBalance.InexactFloat64(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (h *handler) failedCharges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	charges, err := h.deps.FailedCharges.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed charges query failed")
		writeJSONError(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	views := make([]failedChargeView, 0, len(charges))
	for _, c := range charges {
		views = append(views, newFailedChargeView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": h.deps.Clock.Now(),
	})
}
