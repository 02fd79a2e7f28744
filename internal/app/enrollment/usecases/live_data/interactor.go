package live_data

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/analytics"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

const (
	SourceDatabase  = "database"
	SourceLastKnown = "last_known"
	SourceFallback  = "fallback"

	EventStatusLive = "live"

	// DefaultRefreshInterval is how soon the dashboard is told to poll again
	DefaultRefreshInterval = 30 * time.Second
)

// Config holds the live payload constants
type Config struct {
	MetricName      string
	Tickets         int64
	TicketRevenue   int64
	Targets         analytics.EnrollmentTargets
	RefreshInterval time.Duration
	StoreTimeout    time.Duration
}

// LiveData is the payload polled by the dashboard
type LiveData struct {
	Tickets           int64     `json:"tickets"`
	TicketRevenue     int64     `json:"ticketRevenue"`
	Enrollments       int64     `json:"enrollments"`
	EnrollmentRevenue float64   `json:"enrollmentRevenue"`
	GoalProgress      float64   `json:"goalProgress"`
	RecordDifference  int64     `json:"recordDifference"`
	LastUpdated       time.Time `json:"lastUpdated"`
	EventStatus       string    `json:"eventStatus"`
	NextUpdate        time.Time `json:"nextUpdate"`
	Source            string    `json:"source"`
	Error             string    `json:"error,omitempty"`
}

// Interactor builds the live dashboard payload
type Interactor struct {
	store contracts.LedgerStore
	clock domain.Clock
	cfg   Config
	log   zerolog.Logger

	mu        sync.RWMutex
	lastKnown *domain.LedgerState
}

// NewInteractor creates a new live data interactor
func NewInteractor(store contracts.LedgerStore, clock domain.Clock, cfg Config, log zerolog.Logger) *Interactor {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Interactor{
		store: store,
		clock: clock,
		cfg:   cfg,
		log:   log,
	}
}

// Execute never fails: a store error degrades to the last state read, then to the baseline
func (i *Interactor) Execute(ctx context.Context) LiveData {
	now := i.clock.Now()

	callCtx, cancel := context.WithTimeout(ctx, i.cfg.StoreTimeout)
	state, err := i.store.Read(callCtx, i.cfg.MetricName)
	cancel()

	source := SourceDatabase
	errMsg := ""
	if err != nil {
		i.log.Warn().Err(err).Msg("live data read failed, serving degraded figures")
		errMsg = err.Error()
		if last := i.remembered(); last != nil {
			state = *last
			source = SourceLastKnown
		} else {
			state = domain.BaselineState(i.cfg.MetricName, i.cfg.Targets.Baseline, now)
			source = SourceFallback
		}
	} else {
		i.remember(state)
	}

	stats := analytics.ComputeEnrollmentStats(&state, nil, i.cfg.Targets)
	lastUpdated := stats.LastUpdated
	if lastUpdated.IsZero() || source == SourceFallback {
		lastUpdated = now
	}

	return LiveData{
		Tickets:           i.cfg.Tickets,
		TicketRevenue:     i.cfg.TicketRevenue,
		Enrollments:       stats.Enrollments,
		EnrollmentRevenue: stats.Revenue,
		GoalProgress:      stats.GoalProgress,
		RecordDifference:  stats.RecordDifference,
		LastUpdated:       lastUpdated,
		EventStatus:       EventStatusLive,
		NextUpdate:        now.Add(i.cfg.RefreshInterval),
		Source:            source,
		Error:             errMsg,
	}
}

func (i *Interactor) remember(state domain.LedgerState) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastKnown = &state
}

func (i *Interactor) remembered() *domain.LedgerState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.lastKnown == nil {
		return nil
	}
	state := *i.lastKnown
	return &state
}
