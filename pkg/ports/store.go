package ports

import (
	"context"
	"sort"
	"time"

	"github.com/aretw0/formwork/pkg/domain"
)

// Filter narrows List. Empty fields match everything.
type Filter struct {
	TenantID   string
	TypeID     string
	Name       string
	ActiveOnly bool
}

// Matches reports whether the template satisfies the filter.
func (f Filter) Matches(t *domain.FormTemplate) bool {
	return (f.TenantID == "" || t.TenantID == f.TenantID) &&
		(f.TypeID == "" || t.TypeID == f.TypeID) &&
		(f.Name == "" || t.Name == f.Name) &&
		(!f.ActiveOnly || t.IsActive)
}

// TemplateStore defines the interface for persisting template versions.
// Implementations return copies: mutating a returned template never changes the store.
type TemplateStore interface {
	// Create inserts a new template record.
	// Returns domain.ErrTemplateExists if the id is taken and domain.ErrVersionConflict
	// if the lineage already has that version. The check and the insert are atomic.
	Create(ctx context.Context, t *domain.FormTemplate) error

	// Get retrieves a template by id.
	// Returns domain.ErrTemplateNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.FormTemplate, error)

	// Update replaces a template if its stored revision equals t.Revision, and
	// increments t.Revision on success. Returns domain.ErrRevisionConflict otherwise.
	Update(ctx context.Context, t *domain.FormTemplate) error

	// ListLineage returns every version of a lineage ordered by version.
	ListLineage(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error)

	// List returns the templates matching the filter ordered by name, lineage and version.
	List(ctx context.Context, filter Filter) ([]*domain.FormTemplate, error)

	// SetActive atomically makes templateID the only active version of its lineage,
	// stamping ActivatedAt with at when unset. An empty templateID deactivates the
	// whole lineage. Returns domain.ErrTemplateNotFound if templateID is not part of it.
	SetActive(ctx context.Context, lineageID, templateID string, at time.Time) error
}

// SortTemplates orders templates by name, lineage and version, the order List returns.
func SortTemplates(ts []*domain.FormTemplate) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.LineageID != b.LineageID {
			return a.LineageID < b.LineageID
		}
		return a.Version < b.Version
	})
}

// SortByVersion orders the versions of one lineage.
func SortByVersion(ts []*domain.FormTemplate) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Version < ts[j].Version })
}

// ApplyActive flips the active flag across the versions of one lineage in place and
// returns the versions that changed, with their revision bumped. Stores use it inside
// their own transaction. Returns domain.ErrTemplateNotFound if templateID is set but
// absent from versions.
func ApplyActive(versions []*domain.FormTemplate, templateID string, at time.Time) ([]*domain.FormTemplate, error) {
	if templateID != "" {
		found := false
		for _, t := range versions {
			if t.ID == templateID {
				found = true
				break
			}
		}
		if !found {
			return nil, domain.ErrTemplateNotFound
		}
	}

	var changed []*domain.FormTemplate
	for _, t := range versions {
		active := t.ID == templateID
		if t.IsActive == active && (!active || t.ActivatedAt != nil) {
			continue
		}
		t.IsActive = active
		if active && t.ActivatedAt == nil {
			stamp := at
			t.ActivatedAt = &stamp
		}
		t.Revision++
		changed = append(changed, t)
	}
	return changed, nil
}
