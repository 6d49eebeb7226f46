package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"contactsync/internal/contactsync"
	"contactsync/internal/contactsync/models"
	dErrors "contactsync/pkg/domain-errors"
	"contactsync/pkg/platform/httputil"
	"contactsync/pkg/requestcontext"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Runner starts manual runs.
type Runner interface {
	Trigger(trigger models.Trigger) error
}

// History reads past runs.
type History interface {
	ListRecent(ctx context.Context, limit int) ([]*models.Run, error)
}

// Handler exposes run history and the manual trigger.
type Handler struct {
	runner  Runner
	history History
	logger  *slog.Logger
}

func New(runner Runner, history History, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, history: history, logger: logger}
}

// Register mounts sync endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sync/runs", h.HandleListRuns)
	r.Post("/sync/runs", h.HandleTrigger)
}

// TriggerResponse acknowledges a started manual run.
type TriggerResponse struct {
	Status string `json:"status"`
}

// HandleListRuns handles GET /sync/runs?limit=N.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	runs, err := h.history.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list sync runs failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sync runs"))
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

// HandleTrigger handles POST /sync/runs. The run continues after the response
// is written; its outcome shows up in GET /sync/runs.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.runner.Trigger(models.TriggerManual); err != nil {
		if errors.Is(err, contactsync.ErrRunInProgress) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "a sync run is already in progress"))
			return
		}
		if errors.Is(err, contactsync.ErrStopped) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "sync is shutting down"))
			return
		}
		h.logger.ErrorContext(ctx, "manual sync trigger failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start sync run"))
		return
	}

	h.logger.InfoContext(ctx, "manual sync triggered",
		"request_id", requestID,
		"subject", requestcontext.Subject(ctx),
	)
	httputil.WriteJSON(w, http.StatusAccepted, TriggerResponse{Status: "started"})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
