package store

import "contactsync/internal/platform/database"

// Table holds synced contacts.
const Table = "odoo_contact"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS odoo_contact (
		id          BIGSERIAL PRIMARY KEY,
		external_id BIGINT NOT NULL UNIQUE,
		name        TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		write_date  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_odoo_contact_write_date ON odoo_contact (write_date)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS odoo_contact (
		id          INTEGER PRIMARY KEY,
		external_id INTEGER NOT NULL UNIQUE,
		name        TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		write_date  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_odoo_contact_write_date ON odoo_contact (write_date)`,
}

// Schema returns the DDL for dialect.
func Schema(dialect string) []string {
	if dialect == database.DialectSQLite {
		return sqliteSchema
	}
	return postgresSchema
}
