package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"contactsync/internal/contactsync/models"
)

// InMemory keeps run history in process.
type InMemory struct {
	mu   sync.RWMutex
	runs []*models.Run
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Record(_ context.Context, run *models.Run) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs = append(s.runs, &cp)
	return nil
}

func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]*models.Run, len(s.runs))
	copy(sorted, s.runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartedAt.Equal(sorted[j].StartedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})
	if limit < 0 {
		limit = 0
	}
	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	out := make([]*models.Run, 0, len(sorted))
	for _, r := range sorted {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}
