// Package migration creates the tree store schema.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// lifecycleColumns must move together: a row is either active with no timestamps, or binned with both.
const lifecycleColumns = `
  is_deleted   BOOLEAN     NOT NULL DEFAULT false,
  deleted_at   TIMESTAMPTZ NULL,
  delete_after TIMESTAMPTZ NULL,
  CONSTRAINT %[1]s_lifecycle_check CHECK (
    is_deleted = (deleted_at IS NOT NULL) AND is_deleted = (delete_after IS NOT NULL)
  )`

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_folders",
		SQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS folders (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name           TEXT        NOT NULL,
  path           TEXT        NOT NULL,
  parent_id      UUID        NULL REFERENCES folders (id),
  fiscal_year_id TEXT        NULL,
  source_id      TEXT        NULL,
  grant_type_id  TEXT        NULL,
  owner_id       TEXT        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),%s
);`, fmt.Sprintf(lifecycleColumns, "folders")),
	},
	{
		Name: "create_table_files",
		SQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS files (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name           TEXT        NOT NULL,
  path           TEXT        NOT NULL,
  type           TEXT        NOT NULL DEFAULT '',
  size           BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  folder_id      UUID        NULL REFERENCES folders (id),
  fiscal_year_id TEXT        NULL,
  source_id      TEXT        NULL,
  grant_type_id  TEXT        NULL,
  owner_id       TEXT        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),%s
);`, fmt.Sprintf(lifecycleColumns, "files")),
	},
	{
		Name: "create_index_folders_parent_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_folders_parent_id ON folders (parent_id);`,
	},
	{
		Name: "create_index_files_folder_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_folder_id ON files (folder_id);`,
	},
	{
		Name: "create_index_folders_delete_after",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_folders_delete_after ON folders (delete_after) WHERE is_deleted;`,
	},
	{
		Name: "create_index_files_delete_after",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_delete_after ON files (delete_after) WHERE is_deleted;`,
	},
}

// EnsureMigrated checks for the 'folders' sentinel table and runs every step when it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Msg("checking schema")

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT to_regclass('public.folders') IS NOT NULL").Scan(&exists)
	if err != nil {
		log.Error().Err(err).
			Str("event", "db_migration_failed").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().Err(err).
				Str("event", "db_migration_failed").
				Str("migration_step", step.Name).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info().
			Str("event", "db_migration_step").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("migration step applied")
	}

	log.Info().
		Str("event", "db_migration_success").
		Int("steps", len(steps)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("schema migrated")
	return nil
}
