package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/api"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/failed_charge_stats"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/historical_data"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/live_data"
)

const (
	defaultPort     = 8080
	shutdownTimeout = 30 * time.Second
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver and dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, log, err := loadConfig(configPath)

	port := defaultPort
	if cfg != nil && cfg.Port > 0 {
		port = cfg.Port
	}

	var handler http.Handler
	if err != nil {
		// Keep answering so the misconfiguration is visible to callers
		log.Error().Err(err).Msg("invalid configuration; every request will fail")
		handler = api.MisconfiguredHandler(log, err)
	} else {
		clock := domain.RealClock{}
		b, err := openBackend(context.Background(), cfg, clock, log)
		if err != nil {
			log.Error().Err(err).Msg("could not open backend; every request will fail")
			handler = api.MisconfiguredHandler(log, err)
		} else {
			defer b.Close()
			targets := cfg.Targets()
			handler = api.NewRouter(api.Dependencies{
				Ledger: newLedger(cfg, b, b.fallback, clock, log),
				LiveData: live_data.NewInteractor(b.store, clock, live_data.Config{
					MetricName:    cfg.MetricName,
					Tickets:       cfg.Tickets,
					TicketRevenue: cfg.TicketRevenue,
					Targets:       targets,
					StoreTimeout:  cfg.StoreTimeout,
				}, log),
				Historical: historical_data.NewInteractor(b.store, clock, historical_data.Config{
					MetricName:   cfg.MetricName,
					Tickets:      cfg.Tickets,
					Targets:      targets,
					StoreTimeout: cfg.StoreTimeout,
				}, log),
				FailedCharges: failed_charge_stats.NewInteractor(b.charges, cfg.StoreTimeout),
				Fallback:      b.source,
				AdminToken:    cfg.AdminToken,
				Clock:         clock,
				Log:           log,
			})
			if cfg.AdminToken == "" {
				log.Warn().Msg("ADMIN_TOKEN is empty; /api/webhook-admin will reject every request")
			}
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sig:
	}

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server shutdown complete")
	return nil
}
