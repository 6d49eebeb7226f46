package store

import "contactsync/internal/platform/database"

// Table holds the run history.
const Table = "sync_runs"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sync_runs (
		id               TEXT PRIMARY KEY,
		"trigger"        TEXT NOT NULL,
		status           TEXT NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		finished_at      TIMESTAMPTZ NOT NULL,
		watermark_before TIMESTAMPTZ,
		watermark_after  TIMESTAMPTZ,
		fetched          INTEGER NOT NULL DEFAULT 0,
		processed        INTEGER NOT NULL DEFAULT 0,
		skipped          INTEGER NOT NULL DEFAULT 0,
		error            TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs (started_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sync_runs (
		id               TEXT PRIMARY KEY,
		"trigger"        TEXT NOT NULL,
		status           TEXT NOT NULL,
		started_at       DATETIME NOT NULL,
		finished_at      DATETIME NOT NULL,
		watermark_before DATETIME,
		watermark_after  DATETIME,
		fetched          INTEGER NOT NULL DEFAULT 0,
		processed        INTEGER NOT NULL DEFAULT 0,
		skipped          INTEGER NOT NULL DEFAULT 0,
		error            TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs (started_at)`,
}

// Schema returns the DDL for dialect.
func Schema(dialect string) []string {
	if dialect == database.DialectSQLite {
		return sqliteSchema
	}
	return postgresSchema
}
