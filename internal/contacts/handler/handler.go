package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"contactsync/internal/contacts/models"
	dErrors "contactsync/pkg/domain-errors"
	"contactsync/pkg/platform/httputil"
	"contactsync/pkg/requestcontext"
)

// Service defines the contact queries the handler needs.
type Service interface {
	List(ctx context.Context) ([]*models.Contact, error)
	Get(ctx context.Context, id int64) (*models.Contact, error)
	GetByExternalID(ctx context.Context, externalID int64) (*models.Contact, error)
}

// Handler serves the read-only contact API.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a contacts handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts contact endpoints on the router. The singular /contact/{id}
// path is kept for existing clients.
func (h *Handler) Register(r chi.Router) {
	r.Get("/contacts", h.HandleList)
	r.Get("/contacts/{id}", h.HandleGet)
	r.Get("/contact/{id}", h.HandleGet)
	r.Get("/contacts/external/{externalID}", h.HandleGetByExternalID)
}

// HandleList handles GET /contacts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contacts, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list contacts failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContacts(contacts))
}

// HandleGet handles GET /contacts/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, id)
	if err != nil {
		h.logFailure(ctx, "get contact failed", err, "contact_id", id)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContact(c))
}

// HandleGetByExternalID handles GET /contacts/external/{externalID}.
func (h *Handler) HandleGetByExternalID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	externalID, ok := parseID(w, chi.URLParam(r, "externalID"))
	if !ok {
		return
	}
	c, err := h.service.GetByExternalID(ctx, externalID)
	if err != nil {
		h.logFailure(ctx, "get contact by external id failed", err, "external_id", externalID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContact(c))
}

// logFailure keeps not-found lookups out of the error log.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "request_id", requestcontext.RequestID(ctx), "error", err)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		h.logger.DebugContext(ctx, msg, args...)
		return
	}
	h.logger.ErrorContext(ctx, msg, args...)
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id must be an integer"))
		return 0, false
	}
	return id, true
}
