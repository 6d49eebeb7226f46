package contactsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	contactmodels "contactsync/internal/contacts/models"
	contactstore "contactsync/internal/contacts/store"
	"contactsync/internal/contactsync/metrics"
	"contactsync/internal/odoo"
)

// =============================================================================
// Merge Engine Test Suite
// =============================================================================
// The merge engine is the only writer of contacts. Tests cover the upsert
// contract (idempotence, uniqueness, re-fetch safety) and both malformed
// record policies against the in-memory store.

type MergeSuite struct {
	suite.Suite
	ctx     context.Context
	store   *contactstore.InMemory
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func TestMergeSuite(t *testing.T) {
	suite.Run(t, new(MergeSuite))
}

func (s *MergeSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = contactstore.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *MergeSuite) merger(policy MalformedPolicy) *Merger {
	return NewMerger(s.store, policy, s.logger, s.metrics)
}

func partner(id int64, name, email, writeDate string) odoo.Partner {
	return odoo.Partner{ID: id, Name: odoo.Text(name), Email: odoo.Text(email), WriteDate: odoo.Text(writeDate)}
}

func (s *MergeSuite) all() []*contactmodels.Contact {
	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	return all
}

func (s *MergeSuite) TestMergeCreatesAndTracksMax() {
	res, err := s.merger(PolicyAbort).Merge(s.ctx, []odoo.Partner{
		partner(1, "a", "a@x.io", "2024-01-01 10:00:00"),
		partner(2, "b", "", "2024-01-01 12:00:00"),
		partner(3, "c", "c@x.io", "2024-01-01 11:00:00"),
	})
	s.Require().NoError(err)
	s.Equal(3, res.Processed)
	s.Zero(res.Skipped)
	s.Require().NotNil(res.MaxWriteDate)
	s.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), *res.MaxWriteDate)
	s.Len(s.all(), 3)
	s.Equal(float64(3), testutil.ToFloat64(s.metrics.RecordsProcessed))
}

func (s *MergeSuite) TestIdempotence() {
	batch := []odoo.Partner{
		partner(1, "a", "a@x.io", "2024-01-01 10:00:00"),
		partner(2, "b", "b@x.io", "2024-01-01 10:00:00"),
	}
	_, err := s.merger(PolicyAbort).Merge(s.ctx, batch)
	s.Require().NoError(err)
	once := s.all()

	_, err = s.merger(PolicyAbort).Merge(s.ctx, batch)
	s.Require().NoError(err)
	s.Equal(once, s.all())
}

func (s *MergeSuite) TestRefetchAtWatermarkDoesNotDuplicate() {
	s.Require().NoError(s.store.Upsert(s.ctx, &contactmodels.Contact{
		ExternalID: 5, Name: "five", Email: "5@x.io", WriteDate: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}))
	s.Require().NoError(s.store.Upsert(s.ctx, &contactmodels.Contact{
		ExternalID: 6, Name: "six", Email: "6@x.io", WriteDate: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}))

	_, err := s.merger(PolicyAbort).Merge(s.ctx, []odoo.Partner{
		partner(5, "five", "5@x.io", "2024-01-01 10:00:00"),
	})
	s.Require().NoError(err)

	all := s.all()
	s.Len(all, 2)
	six, err := s.store.FindByExternalID(s.ctx, 6)
	s.Require().NoError(err)
	s.Equal("six", six.Name)
}

func (s *MergeSuite) TestDuplicateIDsInOneBatchKeepLast() {
	_, err := s.merger(PolicyAbort).Merge(s.ctx, []odoo.Partner{
		partner(9, "old", "", "2024-01-01 10:00:00"),
		partner(9, "new", "", "2024-01-01 11:00:00"),
	})
	s.Require().NoError(err)
	all := s.all()
	s.Require().Len(all, 1)
	s.Equal("new", all[0].Name)
}

func (s *MergeSuite) TestAbortPolicy() {
	res, err := s.merger(PolicyAbort).Merge(s.ctx, []odoo.Partner{
		partner(1, "a", "", "2024-01-01 10:00:00"),
		partner(2, "b", "", "not a date"),
		partner(3, "c", "", "2024-01-01 12:00:00"),
	})
	s.Require().Error(err)

	var perr *ParseError
	s.Require().True(errors.As(err, &perr))
	s.Equal(1, perr.Index)
	s.Equal(int64(2), perr.ExternalID)
	s.Equal("write_date", perr.Field)

	s.Equal(1, res.Processed)
	all := s.all()
	s.Require().Len(all, 1)
	s.Equal(int64(1), all[0].ExternalID)
}

func (s *MergeSuite) TestSkipPolicy() {
	res, err := s.merger(PolicySkip).Merge(s.ctx, []odoo.Partner{
		partner(1, "a", "", "2024-01-01 10:00:00"),
		partner(0, "no id", "", "2024-01-01 10:30:00"),
		partner(2, "b", "", ""),
		partner(3, "c", "", "2024-01-01 12:00:00"),
	})
	s.Require().NoError(err)
	s.Equal(2, res.Processed)
	s.Equal(2, res.Skipped)
	s.Len(s.all(), 2)
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.RecordsSkipped))
}

func (s *MergeSuite) TestMissingIDIsParseError() {
	_, err := s.merger(PolicyAbort).Merge(s.ctx, []odoo.Partner{partner(0, "x", "", "2024-01-01 10:00:00")})
	var perr *ParseError
	s.Require().True(errors.As(err, &perr))
	s.Equal("id", perr.Field)
}

type failingUpserts struct {
	*contactstore.InMemory
	failOn int64
}

func (f failingUpserts) Upsert(ctx context.Context, c *contactmodels.Contact) error {
	if c.ExternalID == f.failOn {
		return errors.New("disk full")
	}
	return f.InMemory.Upsert(ctx, c)
}

func (s *MergeSuite) TestStorageFailureAbortsEvenUnderSkip() {
	m := NewMerger(failingUpserts{InMemory: s.store, failOn: 2}, PolicySkip, s.logger, nil)
	res, err := m.Merge(s.ctx, []odoo.Partner{
		partner(1, "a", "", "2024-01-01 10:00:00"),
		partner(2, "b", "", "2024-01-01 11:00:00"),
		partner(3, "c", "", "2024-01-01 12:00:00"),
	})
	var serr *StorageError
	s.Require().True(errors.As(err, &serr))
	s.Equal(int64(2), serr.ExternalID)
	s.Equal("upsert", serr.Op)
	s.Equal(1, res.Processed)
	s.Len(s.all(), 1)
}

func (s *MergeSuite) TestCancelledContextStops() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.merger(PolicyAbort).Merge(ctx, []odoo.Partner{partner(1, "a", "", "2024-01-01 10:00:00")})
	s.ErrorIs(err, context.Canceled)
	var serr *StorageError
	s.False(errors.As(err, &serr), "cancellation is not a storage failure")
	s.Empty(s.all())
}

// cancellingUpserts stores the record, then cancels the merge context, the
// way a run deadline expiring mid-batch would.
type cancellingUpserts struct {
	*contactstore.InMemory
	cancel context.CancelFunc
}

func (c cancellingUpserts) Upsert(ctx context.Context, contact *contactmodels.Contact) error {
	err := c.InMemory.Upsert(ctx, contact)
	c.cancel()
	return err
}

// deadlineUpserts fails the way a SQL driver does when the context expires
// during the statement.
type deadlineUpserts struct {
	*contactstore.InMemory
	cancel context.CancelFunc
}

func (d deadlineUpserts) Upsert(ctx context.Context, _ *contactmodels.Contact) error {
	d.cancel()
	return ctx.Err()
}

func (s *MergeSuite) TestDeadlineMidBatchIsNotAStorageError() {
	s.Run("between records", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()
		m := NewMerger(cancellingUpserts{InMemory: s.store, cancel: cancel}, PolicyAbort, s.logger, nil)

		res, err := m.Merge(ctx, []odoo.Partner{
			partner(1, "a", "", "2024-01-01 10:00:00"),
			partner(2, "b", "", "2024-01-01 11:00:00"),
		})
		s.ErrorIs(err, context.Canceled)
		var serr *StorageError
		s.False(errors.As(err, &serr))
		s.Contains(err.Error(), "after 1 of 2 records")
		s.Equal(1, res.Processed)
		s.Len(s.all(), 1)
	})

	s.Run("inside the upsert", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()
		m := NewMerger(deadlineUpserts{InMemory: s.store, cancel: cancel}, PolicyAbort, s.logger, nil)

		res, err := m.Merge(ctx, []odoo.Partner{partner(9, "z", "", "2024-01-01 10:00:00")})
		s.ErrorIs(err, context.Canceled)
		var serr *StorageError
		s.False(errors.As(err, &serr))
		s.Zero(res.Processed)
	})
}
