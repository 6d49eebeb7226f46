// Package contacts is the read side of the synced contact data.
package contacts

import (
	"log/slog"

	"contactsync/internal/contacts/handler"
	"contactsync/internal/contacts/service"
)

// Service exposes contact queries.
type Service = service.Service

// Handler wires HTTP endpoints to the contact service.
type Handler = handler.Handler

// NewService constructs the query service over a contact store.
func NewService(store service.Store) *Service {
	return service.New(store)
}

// NewHandler constructs the HTTP handler for contact routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
