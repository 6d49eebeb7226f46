package service

import (
	"context"
	"errors"

	"contactsync/internal/contacts/models"
	dErrors "contactsync/pkg/domain-errors"
	"contactsync/pkg/platform/sentinel"
)

// Store is the read side of the contact store.
type Store interface {
	List(ctx context.Context) ([]*models.Contact, error)
	FindByID(ctx context.Context, id int64) (*models.Contact, error)
	FindByExternalID(ctx context.Context, externalID int64) (*models.Contact, error)
}

// Service answers contact queries. It never writes.
type Service struct {
	store Store
}

// New constructs a Service.
func New(store Store) *Service {
	return &Service{store: store}
}

// List returns all stored contacts ordered by local id.
func (s *Service) List(ctx context.Context) ([]*models.Contact, error) {
	contacts, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts")
	}
	return contacts, nil
}

// Get returns one contact by local id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Contact, error) {
	if id <= 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
	}
	c, err := s.store.FindByID(ctx, id)
	return s.translate(c, err)
}

// GetByExternalID returns one contact by remote id.
func (s *Service) GetByExternalID(ctx context.Context, externalID int64) (*models.Contact, error) {
	if externalID <= 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
	}
	c, err := s.store.FindByExternalID(ctx, externalID)
	return s.translate(c, err)
}

func (s *Service) translate(c *models.Contact, err error) (*models.Contact, error) {
	if err == nil {
		return c, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
}
