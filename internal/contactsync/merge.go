package contactsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	contactmodels "contactsync/internal/contacts/models"
	"contactsync/internal/contactsync/metrics"
	"contactsync/internal/odoo"
)

// MalformedPolicy decides what a malformed remote record does to its batch.
type MalformedPolicy string

const (
	// PolicyAbort stops the batch at the first malformed record. Records
	// merged before it stay merged.
	PolicyAbort MalformedPolicy = "abort"
	// PolicySkip logs and counts the record, then continues.
	PolicySkip MalformedPolicy = "skip"
)

// MergeResult summarises one batch.
type MergeResult struct {
	Processed    int
	Skipped      int
	MaxWriteDate *time.Time
}

// Merger maps remote partners to contacts and upserts them in fetch order.
type Merger struct {
	store   ContactStore
	policy  MalformedPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewMerger(store ContactStore, policy MalformedPolicy, logger *slog.Logger, m *metrics.Metrics) *Merger {
	if policy == "" {
		policy = PolicyAbort
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{store: store, policy: policy, logger: logger, metrics: m}
}

// Merge applies partners one upsert at a time. There is no batch transaction:
// on error, everything merged before the failing record remains stored and the
// returned result counts it.
func (m *Merger) Merge(ctx context.Context, partners []odoo.Partner) (MergeResult, error) {
	var res MergeResult
	for i, p := range partners {
		if err := ctx.Err(); err != nil {
			return res, interrupted(res, len(partners), err)
		}

		c, perr := toContact(i, p)
		if perr != nil {
			if m.policy == PolicySkip {
				m.logger.WarnContext(ctx, "skipping malformed remote record",
					"index", perr.Index,
					"external_id", perr.ExternalID,
					"field", perr.Field,
					"error", perr.Err,
				)
				m.metrics.IncrementSkipped()
				res.Skipped++
				continue
			}
			return res, perr
		}

		if err := m.store.Upsert(ctx, c); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, interrupted(res, len(partners), ctxErr)
			}
			return res, &StorageError{Op: "upsert", ExternalID: c.ExternalID, Err: err}
		}
		m.metrics.IncrementProcessed()
		res.Processed++
		if res.MaxWriteDate == nil || c.WriteDate.After(*res.MaxWriteDate) {
			wd := c.WriteDate
			res.MaxWriteDate = &wd
		}
	}
	return res, nil
}

// interrupted reports a run deadline or cancellation, which is not a storage
// fault even when it surfaces from the store.
func interrupted(res MergeResult, total int, err error) error {
	return fmt.Errorf("merge interrupted after %d of %d records: %w", res.Processed+res.Skipped, total, err)
}

func toContact(index int, p odoo.Partner) (*contactmodels.Contact, *ParseError) {
	if p.ID <= 0 {
		return nil, &ParseError{Index: index, ExternalID: p.ID, Field: "id", Err: errors.New("missing or non-positive id")}
	}
	wd, err := odoo.ParseDatetime(p.WriteDate.String())
	if err != nil {
		return nil, &ParseError{Index: index, ExternalID: p.ID, Field: "write_date", Err: err}
	}
	c, err := contactmodels.NewContact(p.ID, p.Name.String(), p.Email.String(), wd)
	if err != nil {
		return nil, &ParseError{Index: index, ExternalID: p.ID, Field: "record", Err: fmt.Errorf("build contact: %w", err)}
	}
	return c, nil
}
