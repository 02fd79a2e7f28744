package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/migrations"
	"github.com/wuyiadepoju/enrollment-ledger/internal/platform/logging"
)

func main() {
	var (
		projectID  = flag.String("project", "test-project", "Spanner project ID")
		instanceID = flag.String("instance", "test-instance", "Spanner instance ID")
		databaseID = flag.String("database", "enrollment-db", "Spanner database ID")
		timeout    = flag.Duration("timeout", 5*time.Minute, "Timeout for migration operations")
		logFormat  = flag.String("log-format", "console", "Log format: json or console")
	)
	flag.Parse()

	log := logging.New(logging.Options{Level: "debug", Format: *logFormat, Service: "enrollment-migrate"})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	target := migrations.Target{
		ProjectID:    *projectID,
		InstanceID:   *instanceID,
		DatabaseID:   *databaseID,
		EmulatorHost: os.Getenv("SPANNER_EMULATOR_HOST"),
	}
	if err := migrations.RunMigrations(ctx, log, target); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(1)
	}

	log.Info().Msg("all migrations applied successfully")
}
