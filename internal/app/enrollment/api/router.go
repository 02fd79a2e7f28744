// Package api exposes the ledger and the dashboard read models over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/apply_event"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/historical_data"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/live_data"
	"github.com/wuyiadepoju/enrollment-ledger/internal/metrics"
)

// Ledger applies one webhook event
type Ledger interface {
	Execute(ctx context.Context, event domain.Event) (apply_event.Result, error)
}

// LiveDataProvider builds the live dashboard payload
type LiveDataProvider interface {
	Execute(ctx context.Context) live_data.LiveData
}

// HistoricalDataProvider builds the historical comparison payload
type HistoricalDataProvider interface {
	Execute(ctx context.Context) historical_data.HistoricalData
}

// FailedChargeProvider serves the failed-charge views
type FailedChargeProvider interface {
	Execute(ctx context.Context) (analytics.FailedChargeStats, error)
	List(ctx context.Context) ([]domain.FailedCharge, error)
}

// Dependencies wires the use cases into the router
type Dependencies struct {
	Ledger        Ledger
	LiveData      LiveDataProvider
	Historical    HistoricalDataProvider
	FailedCharges FailedChargeProvider
	// Fallback is optional; the admin status reports the pending count when set
	Fallback   contracts.FallbackSource
	AdminToken string
	Clock      domain.Clock
	Log        zerolog.Logger
}

type handler struct {
	deps Dependencies
	log  zerolog.Logger
}

// NewRouter mounts every endpoint on a chi router
func NewRouter(deps Dependencies) http.Handler {
	if deps.Clock == nil {
		deps.Clock = domain.RealClock{}
	}
	h := &handler{deps: deps, log: deps.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.HandleFunc("/api/webhook", instrument("webhook", h.webhook))
	r.HandleFunc("/api/live-data", instrument("live-data", h.liveData))
	r.HandleFunc("/api/historical-data", instrument("historical-data", h.historicalData))
	r.HandleFunc("/api/analytics", instrument("analytics", h.analytics))
	r.HandleFunc("/api/failed-charges", instrument("failed-charges", h.failedCharges))
	r.HandleFunc("/api/webhook-admin", instrument("webhook-admin", h.webhookAdmin))
	r.Get("/health", instrument("health", h.health))
	r.Handle("/metrics", metrics.Handler())

	return r
}

// MisconfiguredHandler answers every request with a 500 so a broken deployment is loud
func MisconfiguredHandler(log zerolog.Logger, cause error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Error().Err(cause).Str("path", r.URL.Path).Msg("request refused, server misconfigured")
		writeJSONError(w, http.StatusInternalServerError, "Server configuration error")
	})
}
