package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/adapters"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/contracts"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/repo"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/apply_event"
	"github.com/wuyiadepoju/enrollment-ledger/internal/config"
	"github.com/wuyiadepoju/enrollment-ledger/internal/platform/logging"
)

// loadConfig returns a logger even when the configuration is unusable
func loadConfig(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, logging.New(logging.Options{}), err
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		return cfg, log, err
	}
	return cfg, log, nil
}

// backend holds the storage and fallback sinks shared by every command
type backend struct {
	store    contracts.LedgerStore
	charges  contracts.FailedChargeRepository
	fallback contracts.FallbackRecorder
	source   contracts.FallbackSource
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, clock domain.Clock, log zerolog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.LedgerBackend {
	case config.BackendMemory:
		log.Warn().Msg("using in-memory ledger; state is lost on restart")
		store := repo.NewMemoryLedgerStore(cfg.MetricBaseline, clock)
		b.store, b.charges = store, store
	default:
		client, err := repo.NewSpannerClient(ctx, cfg.DatabasePath(), cfg.SpannerEmulatorHost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		b.closers = append(b.closers, client.Close)
		b.store = repo.NewSpannerLedgerStore(client, cfg.MetricBaseline, clock)
		b.charges = repo.NewSpannerFailedChargeRepo(client)
		log.Info().Str("database", cfg.DatabasePath()).Msg("connected to spanner")
	}

	file := adapters.NewFileFallbackRecorder(cfg.FallbackLogPath, clock, log)
	b.fallback, b.source = file, file

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		b.closers = append(b.closers, func() { client.Close() })
		rec := adapters.NewRedisFallbackRecorder(client, cfg.FallbackRedisKey, clock, log)
		b.fallback = adapters.MultiFallbackRecorder{rec, file}
		b.source = rec
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis fallback sink enabled")
	}
	return b, nil
}

func newLedger(cfg *config.Config, b *backend, fallback contracts.FallbackRecorder, clock domain.Clock, log zerolog.Logger) *apply_event.Interactor {
	return apply_event.NewInteractor(
		b.store,
		fallback,
		domain.NewClassifier(cfg.ProductKeywords),
		clock,
		apply_event.Config{
			MetricName:   cfg.MetricName,
			MaxAttempts:  cfg.MaxCASAttempts,
			StoreTimeout: cfg.StoreTimeout,
		},
		log,
	)
}
