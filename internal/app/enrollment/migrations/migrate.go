// Package migrations applies the Spanner schema kept under migrations/ at the module root.
package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	admin "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instanceadmin "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"github.com/rs/zerolog"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/repo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Target names the database to migrate
type Target struct {
	ProjectID    string
	InstanceID   string
	DatabaseID   string
	EmulatorHost string
}

func (t Target) instanceName() string {
	return fmt.Sprintf("projects/%s/instances/%s", t.ProjectID, t.InstanceID)
}

func (t Target) databasePath() string {
	return fmt.Sprintf("%s/databases/%s", t.instanceName(), t.DatabaseID)
}

// RunMigrations creates the instance and database when missing and applies every
// statement found in the migration files.
func RunMigrations(ctx context.Context, log zerolog.Logger, target Target) error {
	opts := repo.ClientOptions(target.EmulatorHost)
	if target.EmulatorHost != "" {
		log.Info().Str("emulator", target.EmulatorHost).Msg("connecting to spanner emulator")
	} else {
		log.Info().Msg("connecting to spanner")
	}

	instanceAdminClient, err := instanceadmin.NewInstanceAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer instanceAdminClient.Close()

	if err := ensureInstance(ctx, log, instanceAdminClient, target); err != nil {
		return err
	}

	adminClient, err := admin.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create database admin client: %w", err)
	}
	defer adminClient.Close()

	statements, err := LoadStatements(log)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		log.Warn().Msg("no DDL statements found in migration files")
		return nil
	}

	_, err = adminClient.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: target.databasePath()})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			log.Info().Str("database", target.DatabaseID).Msg("database does not exist, creating with migrations")
			op, err := adminClient.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
				Parent:          target.instanceName(),
				CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", target.DatabaseID),
				ExtraStatements: statements,
			})
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			db, err := op.Wait(ctx)
			if err != nil {
				return fmt.Errorf("database creation failed: %w", err)
			}
			log.Info().Str("database", db.Name).Int("statements", len(statements)).Msg("database created")
			return nil
		}
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	log.Info().Str("database", target.DatabaseID).Int("statements", len(statements)).Msg("database exists, applying DDL")
	if err := ApplySchema(ctx, adminClient, target.databasePath(), statements); err != nil {
		return err
	}
	log.Info().Int("statements", len(statements)).Msg("migrations applied")
	return nil
}

func ensureInstance(ctx context.Context, log zerolog.Logger, client *instanceadmin.InstanceAdminClient, target Target) error {
	_, err := client.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: target.instanceName()})
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("failed to check instance existence: %w", err)
	}

	log.Info().Str("instance", target.InstanceID).Msg("instance does not exist, creating")
	op, err := client.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     fmt.Sprintf("projects/%s", target.ProjectID),
		InstanceId: target.InstanceID,
		Instance: &instancepb.Instance{
			DisplayName: target.InstanceID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("instance creation failed: %w", err)
	}
	return nil
}

// ApplySchema runs statements against an existing database and waits for completion
func ApplySchema(ctx context.Context, adminClient *admin.DatabaseAdminClient, databasePath string, statements []string) error {
	op, err := adminClient.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   databasePath,
		Statements: statements,
	})
	if err != nil {
		return fmt.Errorf("failed to start migrations: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("timeout waiting for migrations: %w", ctx.Err())
		}
		return fmt.Errorf("failed to complete migrations: %w", err)
	}
	return nil
}

// LoadStatements reads every migration file in name order and returns its DDL statements
func LoadStatements(log zerolog.Logger) ([]string, error) {
	dir, err := findMigrationsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find migrations directory: %w", err)
	}
	files, err := getMigrationFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration files: %w", err)
	}

	var all []string
	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		statements := parseDDLStatements(string(sql))
		log.Debug().Str("file", filepath.Base(file)).Int("statements", len(statements)).Msg("read migration")
		all = append(all, statements...)
	}
	return all, nil
}

// findMigrationsDir walks up from the working directory to the module root
func findMigrationsDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			migrationsPath := filepath.Join(dir, "migrations")
			if _, err := os.Stat(migrationsPath); err == nil {
				return migrationsPath, nil
			}
			return "", fmt.Errorf("migrations directory not found at %s", migrationsPath)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	migrationsPath := filepath.Join(wd, "migrations")
	if _, err := os.Stat(migrationsPath); err == nil {
		return migrationsPath, nil
	}
	return "", fmt.Errorf("could not find migrations directory (searched from %s)", wd)
}

// getMigrationFiles returns the .sql files of dir, sorted
func getMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseDDLStatements splits a file on trailing semicolons. Comments are dropped;
// Spanner rejects them inside DDL.
func parseDDLStatements(sql string) []string {
	var (
		statements []string
		current    strings.Builder
	)

	flush := func() {
		stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(sql, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(trimmed)

		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return statements
}
