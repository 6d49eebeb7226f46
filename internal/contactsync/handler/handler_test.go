package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"contactsync/internal/contactsync"
	"contactsync/internal/contactsync/models"
	"contactsync/internal/contactsync/store"
	"contactsync/pkg/testutil"
)

type stubRunner struct {
	err      error
	triggers []models.Trigger
}

func (s *stubRunner) Trigger(trigger models.Trigger) error {
	s.triggers = append(s.triggers, trigger)
	return s.err
}

type brokenHistory struct{}

func (brokenHistory) ListRecent(context.Context, int) ([]*models.Run, error) {
	return nil, errors.New("db down")
}

type HandlerSuite struct {
	suite.Suite
	runner  *stubRunner
	history *store.InMemory
	router  chi.Router
	logger  *slog.Logger
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.runner = &stubRunner{}
	s.history = store.NewInMemory()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.runner, s.history, s.logger).Register(s.router)
}

func (s *HandlerSuite) seedRuns(n int) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Require().NoError(s.history.Record(context.Background(), &models.Run{
			ID:         fmt.Sprintf("run-%03d", i),
			Trigger:    models.TriggerSchedule,
			Status:     models.StatusSucceeded,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
		}))
	}
}

func (s *HandlerSuite) TestListRuns() {
	s.Run("empty history is an empty array", func() {
		rr := testutil.Get(s.router, "/sync/runs")
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`[]`, rr.Body.String())
	})

	s.Run("defaults to 20 newest first", func() {
		s.seedRuns(25)
		rr := testutil.Get(s.router, "/sync/runs")
		s.Equal(http.StatusOK, rr.Code)
		runs := testutil.UnmarshalResponse[[]models.Run](s.T(), rr)
		s.Len(runs, 20)
		s.Equal("run-024", runs[0].ID)
	})

	s.Run("honours limit", func() {
		rr := testutil.Get(s.router, "/sync/runs?limit=2")
		runs := testutil.UnmarshalResponse[[]models.Run](s.T(), rr)
		s.Len(runs, 2)
	})

	s.Run("caps limit", func() {
		rr := testutil.Get(s.router, "/sync/runs?limit=100000")
		s.Equal(http.StatusOK, rr.Code)
		runs := testutil.UnmarshalResponse[[]models.Run](s.T(), rr)
		s.Len(runs, 25)
	})

	s.Run("rejects bad limit", func() {
		for _, q := range []string{"abc", "0", "-3"} {
			rr := testutil.Get(s.router, "/sync/runs?limit="+q)
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
		}
	})

	s.Run("history failure is an internal error without details", func() {
		router := chi.NewRouter()
		New(s.runner, brokenHistory{}, s.logger).Register(router)
		rr := testutil.Get(router, "/sync/runs")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
		s.NotContains(rr.Body.String(), "db down")
	})
}

func (s *HandlerSuite) TestTrigger() {
	s.Run("accepted", func() {
		rr := testutil.Post(s.router, "/sync/runs")
		s.Equal(http.StatusAccepted, rr.Code)
		s.JSONEq(`{"status":"started"}`, rr.Body.String())
		s.Equal([]models.Trigger{models.TriggerManual}, s.runner.triggers)
	})

	s.Run("conflict while a run is active", func() {
		s.runner.err = contactsync.ErrRunInProgress
		rr := testutil.Post(s.router, "/sync/runs")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("unavailable once sync has stopped", func() {
		s.runner.err = contactsync.ErrStopped
		rr := testutil.Post(s.router, "/sync/runs")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "service_unavailable")
	})

	s.Run("other failures are internal", func() {
		s.runner.err = errors.New("boom")
		rr := testutil.Post(s.router, "/sync/runs")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})
}
