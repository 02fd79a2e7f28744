package historical_data

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

const (
	SourceDatabase = "database"
	SourceFallback = "fallback"

	StatusTrackingToGoal = "tracking_to_goal"
)

// Period is the summary of one launch event
type Period struct {
	TotalTickets     int64                  `json:"totalTickets"`
	TotalEnrollments int64                  `json:"totalEnrollments"`
	TotalRevenue     float64                `json:"totalRevenue"`
	ConversionRate   float64                `json:"conversionRate"`
	Status           string                 `json:"status,omitempty"`
	RecordDifference *int64                 `json:"recordDifference,omitempty"`
	Timeline         []analytics.ChartPoint `json:"timeline,omitempty"`
}

// Events groups the closed launches with the one in progress
type Events struct {
	September2025 Period `json:"september2025"`
	February2025  Period `json:"february2025"`
	February2026  Period `json:"february2026"`
}

// HistoricalData is the historical comparison payload
type HistoricalData struct {
	Events      Events    `json:"events"`
	LastUpdated time.Time `json:"lastUpdated"`
	Source      string    `json:"source"`
	Error       string    `json:"error,omitempty"`
}

// Closed launches; their figures never change.
var (
	September2025 = Period{
		TotalTickets:     5893,
		TotalEnrollments: 363,
		TotalRevenue:     3630000,
		ConversionRate:   6.2,
		Timeline: []analytics.ChartPoint{
			{Date: "2025-09-19", Enrollments: 0},
			{Date: "2025-09-20", Enrollments: 88},
			{Date: "2025-09-21", Enrollments: 217},
			{Date: "2025-09-22", Enrollments: 305},
			{Date: "2025-09-23", Enrollments: 310},
			{Date: "2025-09-24", Enrollments: 325},
			{Date: "2025-09-25", Enrollments: 340},
			{Date: "2025-09-26", Enrollments: 353},
			{Date: "2025-09-27", Enrollments: 363},
		},
	}
	February2025 = Period{
		TotalTickets:     977,
		TotalEnrollments: 336,
		TotalRevenue:     2870000,
		ConversionRate:   34.4,
	}
)

// Config holds the current launch constants
type Config struct {
	MetricName   string
	Tickets      int64
	Targets      analytics.EnrollmentTargets
	StoreTimeout time.Duration
}

// Interactor builds the historical comparison
type Interactor struct {
	store contracts.LedgerStore
	clock domain.Clock
	cfg   Config
	log   zerolog.Logger
}

// NewInteractor creates a new historical data interactor
func NewInteractor(store contracts.LedgerStore, clock domain.Clock, cfg Config, log zerolog.Logger) *Interactor {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Interactor{store: store, clock: clock, cfg: cfg, log: log}
}

// Execute never fails; on a store error the live period falls back to the baseline with no timeline
func (i *Interactor) Execute(ctx context.Context) HistoricalData {
	callCtx, cancel := context.WithTimeout(ctx, i.cfg.StoreTimeout)
	defer cancel()

	data := HistoricalData{
		Events: Events{
			September2025: September2025,
			February2025:  February2025,
		},
		Source: SourceDatabase,
	}

	state, timeline, err := i.load(callCtx)
	if err != nil {
		i.log.Warn().Err(err).Msg("historical data load failed, serving baseline")
		data.Source = SourceFallback
		data.Error = err.Error()
		data.Events.February2026 = i.livePeriod(nil, nil)
		data.LastUpdated = i.clock.Now()
		return data
	}

	data.Events.February2026 = i.livePeriod(&state, timeline)
	data.LastUpdated = state.LastUpdatedAt
	if data.LastUpdated.IsZero() {
		data.LastUpdated = i.clock.Now()
	}
	return data
}

func (i *Interactor) load(ctx context.Context) (domain.LedgerState, []domain.TimelineEntry, error) {
	state, err := i.store.Read(ctx, i.cfg.MetricName)
	if err != nil {
		return domain.LedgerState{}, nil, fmt.Errorf("read ledger state: %w", err)
	}
	timeline, err := i.store.Timeline(ctx, i.cfg.MetricName)
	if err != nil {
		return domain.LedgerState{}, nil, fmt.Errorf("read timeline: %w", err)
	}
	return state, timeline, nil
}

func (i *Interactor) livePeriod(state *domain.LedgerState, timeline []domain.TimelineEntry) Period {
	stats := analytics.ComputeEnrollmentStats(state, timeline, i.cfg.Targets)
	diff := stats.RecordDifference
	return Period{
		TotalTickets:     i.cfg.Tickets,
		TotalEnrollments: stats.Enrollments,
		TotalRevenue:     stats.Revenue,
		ConversionRate:   conversionRate(stats.Enrollments, i.cfg.Tickets),
		Status:           StatusTrackingToGoal,
		RecordDifference: &diff,
		Timeline:         stats.Timeline,
	}
}

// conversionRate is enrollments per ticket as a percentage, 1 place
func conversionRate(enrollments, tickets int64) float64 {
	if tickets <= 0 {
		return 0
	}
	return decimal.NewFromInt(enrollments).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(tickets)).Round(1).InexactFloat64()
}
