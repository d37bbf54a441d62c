package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"codeapi/internal/logging"
	"codeapi/internal/model"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created last; its presence means the schema is complete.
const sentinelTable = "last_etl"

// Steps returns the schema statements in execution order.
func Steps() []migrationStep {
	var steps []migrationStep
	for _, ct := range model.CodeTypes() {
		table := pgx.Identifier{ct.Table()}.Sanitize()
		steps = append(steps,
			migrationStep{
				Name: "create_table_" + ct.Table(),
				SQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  code_value  TEXT PRIMARY KEY,
  description TEXT,
  providers   TEXT
);`, table),
			},
			migrationStep{
				Name: "create_index_" + ct.Table() + "_description",
				SQL: fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (upper(description));`,
					pgx.Identifier{"idx_" + ct.Table() + "_description"}.Sanitize(), table),
			},
		)
	}

	return append(steps,
		migrationStep{
			Name: "create_table_public_srsnames",
			SQL: `CREATE TABLE IF NOT EXISTS public_srsnames (
  parm_cd                 TEXT PRIMARY KEY,
  description             TEXT,
  characteristicname      TEXT,
  measureunitcode         TEXT,
  resultsamplefraction    TEXT,
  resulttemperaturebasis  TEXT,
  resultstatisticalbasis  TEXT,
  resulttimebasis         TEXT,
  resultweightbasis       TEXT,
  resultparticlesizebasis TEXT,
  last_rev_dt             DATE
);`,
		},
		migrationStep{
			Name: "create_table_last_etl",
			SQL: `CREATE TABLE IF NOT EXISTS last_etl (
  dataset       TEXT        NOT NULL,
  completed_utc TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		},
	)
}

// EnsureMigrated checks if the sentinel table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, dbHost string) error {
	start := time.Now()
	log := logging.FromContext(ctx).With().
		Str("component", "database").
		Str("db_host", dbHost).
		Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Send()

	var exists bool
	query := fmt.Sprintf("SELECT to_regclass('public.%s') IS NOT NULL", sentinelTable)
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Str("status", "error").
			Dur("duration_ms", time.Since(start)).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Dur("duration_ms", time.Since(start)).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Send()

	for _, step := range Steps() {
		if err := runStep(ctx, db, step, log); err != nil {
			return err
		}
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Dur("duration_ms", time.Since(start)).
		Send()

	return nil
}

func runStep(ctx context.Context, db *sql.DB, step migrationStep, log zerolog.Logger) error {
	stepStart := time.Now()
	if _, err := db.ExecContext(ctx, step.SQL); err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Str("status", "error").
			Str("migration_step", step.Name).
			Dur("step_duration_ms", time.Since(stepStart)).
			Send()
		return fmt.Errorf("migration step %s failed: %w", step.Name, err)
	}

	log.Info().
		Str("event", "db_migration_step").
		Str("status", "success").
		Str("migration_step", step.Name).
		Dur("step_duration_ms", time.Since(stepStart)).
		Send()
	return nil
}
