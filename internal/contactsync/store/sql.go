// Package store keeps the append-only sync run history.
package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"contactsync/internal/contactsync/models"
	"contactsync/internal/platform/database"
)

var columns = []any{
	"id", "trigger", "status", "started_at", "finished_at",
	"watermark_before", "watermark_after", "fetched", "processed", "skipped", "error",
}

// SQLStore persists runs in sync_runs.
type SQLStore struct {
	db *database.DB
}

func NewSQL(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the run history table if missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema(s.db.Dialect))
}

// Record appends run to the history.
func (s *SQLStore) Record(ctx context.Context, run *models.Run) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}
	ds := s.db.Builder().
		Insert(Table).
		Rows(goqu.Record{
			"id":               run.ID,
			"trigger":          string(run.Trigger),
			"status":           string(run.Status),
			"started_at":       run.StartedAt.UTC(),
			"finished_at":      run.FinishedAt.UTC(),
			"watermark_before": database.NullTime(run.WatermarkBefore),
			"watermark_after":  database.NullTime(run.WatermarkAfter),
			"fetched":          run.Fetched,
			"processed":        run.Processed,
			"skipped":          run.Skipped,
			"error":            run.Error,
		}).
		Prepared(true)
	if err := s.db.Exec(ctx, ds); err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRecent returns up to limit runs, newest first.
func (s *SQLStore) ListRecent(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		return []*models.Run{}, nil
	}
	query, args, err := s.db.Builder().
		From(Table).
		Select(columns...).
		Order(goqu.C("started_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build run history query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.Run, 0, limit)
	for rows.Next() {
		var (
			run               models.Run
			trigger, status   string
			started, finished database.Time
			wmBefore, wmAfter database.Time
		)
		if err := rows.Scan(&run.ID, &trigger, &status, &started, &finished,
			&wmBefore, &wmAfter, &run.Fetched, &run.Processed, &run.Skipped, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Trigger = models.Trigger(trigger)
		run.Status = models.Status(status)
		run.StartedAt = started.Time
		run.FinishedAt = finished.Time
		run.WatermarkBefore = wmBefore.Ptr()
		run.WatermarkAfter = wmAfter.Ptr()
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
