package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"contactsync/internal/contacts/models"
	"contactsync/pkg/platform/sentinel"
)

// InMemory is a map-backed contact store keyed by external id.
type InMemory struct {
	mu         sync.RWMutex
	byExternal map[int64]*models.Contact
	nextID     int64
}

func NewInMemory() *InMemory {
	return &InMemory{byExternal: make(map[int64]*models.Contact)}
}

func (s *InMemory) Upsert(_ context.Context, c *models.Contact) error {
	if c == nil {
		return fmt.Errorf("contact is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byExternal[c.ExternalID]; ok {
		existing.Name = c.Name
		existing.Email = c.Email
		existing.WriteDate = c.WriteDate.UTC()
		return nil
	}
	s.nextID++
	stored := *c
	stored.ID = s.nextID
	stored.WriteDate = c.WriteDate.UTC()
	s.byExternal[c.ExternalID] = &stored
	return nil
}

func (s *InMemory) Watermark(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max *time.Time
	for _, c := range s.byExternal {
		if max == nil || c.WriteDate.After(*max) {
			wd := c.WriteDate
			max = &wd
		}
	}
	return max, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Contact, 0, len(s.byExternal))
	for _, c := range s.byExternal {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.byExternal {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByExternalID(_ context.Context, externalID int64) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byExternal[externalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byExternal), nil
}
