package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/adapters"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/usecases/replay_fallback"
)

func replayCmd(configPath *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-apply events held in the fallback sink to the ledger",
		Long: `Reads every pending fallback record and runs it through the ledger again.
Events already applied are reported as duplicates, so running replay twice is safe.
The fallback sink is not truncated; clear it once the report looks right.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			clock := domain.RealClock{}
			b, err := openBackend(ctx, cfg, clock, log)
			if err != nil {
				return err
			}
			defer b.Close()

			// Failures during replay are logged only; the record is still in the sink
			ledger := newLedger(cfg, b, adapters.LogFallbackRecorder{Log: log}, clock, log)
			report, err := replay_fallback.NewInteractor(b.source, ledger, log).Execute(ctx)
			if err != nil {
				return fmt.Errorf("replay failed: %w", err)
			}
			return json.NewEncoder(os.Stdout).Encode(report)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall replay timeout")
	return cmd
}
