package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// Store implements ports.TemplateStore in memory.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	data     map[string]*domain.FormTemplate
	lineages map[string]map[int]string // lineage -> version -> template id
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data:     make(map[string]*domain.FormTemplate),
		lineages: make(map[string]map[int]string),
	}
}

// Create inserts a copy of the template.
func (s *Store) Create(ctx context.Context, t *domain.FormTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return domain.ErrTemplateExists
	}
	versions := s.lineages[t.LineageID]
	if _, taken := versions[t.Version]; taken {
		return domain.ErrVersionConflict
	}
	if versions == nil {
		versions = make(map[int]string)
		s.lineages[t.LineageID] = versions
	}
	versions[t.Version] = t.ID
	s.data[t.ID] = t.Clone()
	return nil
}

// Get returns a copy so callers can't mutate store state directly by pointer.
func (s *Store) Get(ctx context.Context, id string) (*domain.FormTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[id]
	if !ok {
		return nil, domain.ErrTemplateNotFound
	}
	return t.Clone(), nil
}

// Update replaces the template when the revision matches.
func (s *Store) Update(ctx context.Context, t *domain.FormTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[t.ID]
	if !ok {
		return domain.ErrTemplateNotFound
	}
	if current.Revision != t.Revision {
		return domain.ErrRevisionConflict
	}

	t.Revision++
	stored := t.Clone()
	// Lineage placement is fixed at creation.
	stored.LineageID = current.LineageID
	stored.Version = current.Version
	s.data[t.ID] = stored
	return nil
}

// ListLineage returns the lineage's versions in order.
func (s *Store) ListLineage(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.FormTemplate, 0, len(s.lineages[lineageID]))
	for _, id := range s.lineages[lineageID] {
		out = append(out, s.data[id].Clone())
	}
	ports.SortByVersion(out)
	return out, nil
}

// List returns the templates matching the filter.
func (s *Store) List(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FormTemplate
	for _, t := range s.data {
		if filter.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	ports.SortTemplates(out)
	return out, nil
}

// SetActive switches the active version of a lineage under the store lock.
func (s *Store) SetActive(ctx context.Context, lineageID, templateID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := make([]*domain.FormTemplate, 0, len(s.lineages[lineageID]))
	for _, id := range s.lineages[lineageID] {
		versions = append(versions, s.data[id])
	}
	_, err := ports.ApplyActive(versions, templateID, at)
	return err
}
