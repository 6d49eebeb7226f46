// Package store persists contacts. SQLStore serves Postgres and SQLite
// through goqu; InMemory backs unit tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"contactsync/internal/contacts/models"
	"contactsync/internal/platform/database"
	"contactsync/pkg/platform/sentinel"
)

var columns = []any{"id", "external_id", "name", "email", "write_date"}

// SQLStore persists contacts in odoo_contact.
type SQLStore struct {
	db *database.DB
}

// NewSQL constructs a store over an open database.
func NewSQL(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the table and its write_date index if missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema(s.db.Dialect))
}

// Upsert inserts c or overwrites the row with the same external id. It is a
// single statement, so a concurrent reader sees either the old or the new row.
func (s *SQLStore) Upsert(ctx context.Context, c *models.Contact) error {
	if c == nil {
		return fmt.Errorf("contact is required")
	}
	ds := s.db.Builder().
		Insert(Table).
		Rows(goqu.Record{
			"external_id": c.ExternalID,
			"name":        c.Name,
			"email":       c.Email,
			"write_date":  c.WriteDate.UTC(),
		}).
		OnConflict(goqu.DoUpdate("external_id", goqu.Record{
			"name":       goqu.I("excluded.name"),
			"email":      goqu.I("excluded.email"),
			"write_date": goqu.I("excluded.write_date"),
		})).
		Prepared(true)
	if err := s.db.Exec(ctx, ds); err != nil {
		return fmt.Errorf("upsert contact %d: %w", c.ExternalID, err)
	}
	return nil
}

// Watermark returns the newest write_date, or nil when the table is empty.
func (s *SQLStore) Watermark(ctx context.Context) (*time.Time, error) {
	ds := s.db.Builder().
		From(Table).
		Select("write_date").
		Order(goqu.C("write_date").Desc()).
		Limit(1).
		Prepared(true)
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build watermark query: %w", err)
	}

	var wd database.Time
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&wd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}
	return wd.Ptr(), nil
}

// List returns every contact ordered by local id.
func (s *SQLStore) List(ctx context.Context) ([]*models.Contact, error) {
	ds := s.db.Builder().
		From(Table).
		Select(columns...).
		Order(goqu.C("id").Asc()).
		Prepared(true)
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// FindByID returns the contact with local id, or sentinel.ErrNotFound.
func (s *SQLStore) FindByID(ctx context.Context, id int64) (*models.Contact, error) {
	return s.findOne(ctx, goqu.C("id").Eq(id))
}

// FindByExternalID returns the contact with remote id, or sentinel.ErrNotFound.
func (s *SQLStore) FindByExternalID(ctx context.Context, externalID int64) (*models.Contact, error) {
	return s.findOne(ctx, goqu.C("external_id").Eq(externalID))
}

// Count returns the number of stored contacts.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query, args, err := s.db.Builder().
		From(Table).
		Select(goqu.COUNT("*")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (s *SQLStore) findOne(ctx context.Context, where exp.Expression) (*models.Contact, error) {
	query, args, err := s.db.Builder().
		From(Table).
		Select(columns...).
		Where(where).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	c, err := scanContact(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(row scanner) (*models.Contact, error) {
	var (
		c  models.Contact
		wd database.Time
	)
	if err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Email, &wd); err != nil {
		return nil, err
	}
	c.WriteDate = wd.Time
	return &c, nil
}
