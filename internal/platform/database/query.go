package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
)

// Builder returns a goqu dialect wrapper that renders placeholders for this
// database. Stores always build prepared statements so time values reach the
// driver as time.Time.
func (db *DB) Builder() goqu.DialectWrapper {
	return goqu.Dialect(db.Dialect)
}

// Exec runs a goqu expression built with Builder.
func (db *DB) Exec(ctx context.Context, ds interface {
	ToSQL() (string, []any, error)
}) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

// Migrate executes idempotent DDL statements in order.
func (db *DB) Migrate(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Time scans timestamp columns from either driver. SQLite hands back text when
// the column type is lost, Postgres hands back time.Time.
type Time struct {
	Time  time.Time
	Valid bool
}

var sqliteLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into database.Time", src)
	}
}

func (t *Time) parse(s string) error {
	for _, layout := range sqliteLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC(), nil
}

// Ptr returns nil for NULL.
func (t Time) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// NullTime converts an optional time for insertion.
func NullTime(p *time.Time) Time {
	if p == nil {
		return Time{}
	}
	return Time{Time: p.UTC(), Valid: true}
}
