package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/lineage"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
)

// Manager implements the template version lifecycle on top of a TemplateStore.
type Manager struct {
	store      ports.TemplateStore
	locks      *lineage.Manager
	publisher  ports.EventPublisher
	predicates *registry.Predicates
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLineageManager shares a lineage lock manager (e.g. one configured with a
// distributed locker).
func WithLineageManager(locks *lineage.Manager) Option {
	return func(m *Manager) {
		m.locks = locks
	}
}

// WithPublisher sets the sink for lifecycle events.
func WithPublisher(p ports.EventPublisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithPredicates provides custom rules for definition checks.
func WithPredicates(p *registry.Predicates) Option {
	return func(m *Manager) {
		m.predicates = p
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides how template and lineage ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a version Manager over store.
func NewManager(store ports.TemplateStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.locks == nil {
		m.locks = lineage.NewManager(lineage.WithLogger(m.logger))
	}
	return m
}

// Create stores draft as version 1 of a new lineage. Ids, version and timestamps are
// assigned here; the draft's questions must pass definition checks.
func (m *Manager) Create(ctx context.Context, draft *domain.FormTemplate) (*domain.FormTemplate, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidTemplate)
	}
	if err := questions.Check(draft.Questions, m.predicates); err != nil {
		return nil, err
	}

	now := m.now()
	t := draft.Clone()
	t.ID = m.newID()
	t.LineageID = m.newID()
	t.Version = 1
	t.IsActive = false
	t.ActivatedAt = nil
	t.CreatedFrom = ""
	t.Revision = 0
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.EffectiveDate.IsZero() {
		t.EffectiveDate = now
	}
	t.Renumber()

	if err := m.store.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	m.publish(ctx, domain.NewEvent(domain.EventTemplateCreated, t, now))
	return t, nil
}

// Get loads a template by id.
func (m *Manager) Get(ctx context.Context, id string) (*domain.FormTemplate, error) {
	return m.store.Get(ctx, id)
}

// CreateVersion snapshots templateID into a new inactive version of its lineage.
func (m *Manager) CreateVersion(ctx context.Context, templateID, notes string) (*domain.FormTemplate, error) {
	src, err := m.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var created *domain.FormTemplate
	err = m.locks.WithLock(ctx, src.LineageID, func(ctx context.Context) error {
		next, err := m.fork(ctx, src, notes)
		if err != nil {
			return err
		}
		if err := m.store.Create(ctx, next); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.publish(ctx, domain.NewEvent(domain.EventVersionCreated, created, created.CreatedAt))
	return created, nil
}

// fork builds the next version of src's lineage without storing it.
// The caller holds the lineage lock.
func (m *Manager) fork(ctx context.Context, src *domain.FormTemplate, notes string) (*domain.FormTemplate, error) {
	versions, err := m.store.ListLineage(ctx, src.LineageID)
	if err != nil {
		return nil, fmt.Errorf("failed to read lineage: %w", err)
	}
	latest := 0
	for _, v := range versions {
		latest = max(latest, v.Version)
	}

	now := m.now()
	next := src.Clone()
	next.ID = m.newID()
	next.Version = latest + 1
	next.IsActive = false
	next.ActivatedAt = nil
	next.VersionNotes = notes
	next.CreatedFrom = src.ID
	next.Revision = 0
	next.CreatedAt = now
	next.UpdatedAt = now
	return next, nil
}

// EditFunc transforms a mutable copy of a template.
type EditFunc func(*domain.FormTemplate) (*domain.FormTemplate, error)

// Edit applies fn to templateID. Drafts that are the latest version of their lineage
// are edited in place. Anything else (published or superseded) is forked first, and
// the fork receives the edit. The returned template is the one that was written.
func (m *Manager) Edit(ctx context.Context, templateID, detail string, fn EditFunc) (*domain.FormTemplate, error) {
	src, err := m.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var (
		written *domain.FormTemplate
		forked  bool
	)
	err = m.locks.WithLock(ctx, src.LineageID, func(ctx context.Context) error {
		// Re-read under the lock; the template may have changed since.
		current, err := m.store.Get(ctx, templateID)
		if err != nil {
			return err
		}
		versions, err := m.store.ListLineage(ctx, current.LineageID)
		if err != nil {
			return fmt.Errorf("failed to read lineage: %w", err)
		}

		target := current
		if current.Published() || !isLatest(current, versions) {
			target, err = m.fork(ctx, current, fmt.Sprintf("forked from v%d: %s", current.Version, detail))
			if err != nil {
				return err
			}
			forked = true
		}

		edited, err := fn(target)
		if err != nil {
			return err
		}
		edited.UpdatedAt = m.now()

		if forked {
			if err := m.store.Create(ctx, edited); err != nil {
				return fmt.Errorf("failed to create version: %w", err)
			}
		} else if err := m.store.Update(ctx, edited); err != nil {
			return fmt.Errorf("failed to update template: %w", err)
		}
		written = edited
		return nil
	})
	if err != nil {
		return nil, err
	}

	if forked {
		m.publish(ctx, domain.NewEvent(domain.EventVersionCreated, written, written.CreatedAt))
	}
	ev := domain.NewEvent(domain.EventTemplateUpdated, written, written.UpdatedAt)
	ev.Detail = detail
	m.publish(ctx, ev)
	return written, nil
}

func isLatest(t *domain.FormTemplate, versions []*domain.FormTemplate) bool {
	for _, v := range versions {
		if v.Version > t.Version {
			return false
		}
	}
	return true
}

// History returns every version carrying the given name, type and tenant, ordered
// by version. Names are matched verbatim.
func (m *Manager) History(ctx context.Context, baseName, typeID, tenantID string) ([]*domain.FormTemplate, error) {
	found, err := m.store.List(ctx, ports.Filter{TenantID: tenantID, TypeID: typeID, Name: baseName})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no versions named %q", domain.ErrTemplateNotFound, baseName)
	}
	ports.SortByVersion(found)
	return found, nil
}

// LineageHistory returns every version of a lineage ordered by version.
func (m *Manager) LineageHistory(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error) {
	found, err := m.store.ListLineage(ctx, lineageID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: lineage %q", domain.ErrTemplateNotFound, lineageID)
	}
	return found, nil
}

// Compare returns the structural difference from a to b.
func Compare(a, b *domain.FormTemplate) *domain.TemplateDiff {
	return domain.Diff(a, b)
}

// CompareByID loads both templates and compares them.
func (m *Manager) CompareByID(ctx context.Context, fromID, toID string) (*domain.TemplateDiff, error) {
	from, err := m.store.Get(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := m.store.Get(ctx, toID)
	if err != nil {
		return nil, err
	}
	return Compare(from, to), nil
}

// Activate makes templateID the only active version of its lineage.
func (m *Manager) Activate(ctx context.Context, templateID string) (*domain.FormTemplate, error) {
	return m.switchActive(ctx, templateID, true)
}

// Deactivate turns templateID off. The lineage is left without an active version.
// Deactivating an inactive version is a no-op.
func (m *Manager) Deactivate(ctx context.Context, templateID string) (*domain.FormTemplate, error) {
	return m.switchActive(ctx, templateID, false)
}

func (m *Manager) switchActive(ctx context.Context, templateID string, activate bool) (*domain.FormTemplate, error) {
	src, err := m.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var (
		result  *domain.FormTemplate
		changed bool
	)
	err = m.locks.WithLock(ctx, src.LineageID, func(ctx context.Context) error {
		current, err := m.store.Get(ctx, templateID)
		if err != nil {
			return err
		}
		if current.IsActive == activate {
			result = current
			return nil
		}

		target := ""
		if activate {
			target = templateID
		}
		if err := m.store.SetActive(ctx, current.LineageID, target, m.now()); err != nil {
			return fmt.Errorf("failed to switch active version: %w", err)
		}
		changed = true
		result, err = m.store.Get(ctx, templateID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		typ := domain.EventVersionDeactivated
		if activate {
			typ = domain.EventVersionActivated
		}
		m.publish(ctx, domain.NewEvent(typ, result, m.now()))
	}
	return result, nil
}

// DeactivateLineage turns off every version of a lineage. This is the only way a
// template is retired; records are never deleted.
func (m *Manager) DeactivateLineage(ctx context.Context, lineageID string) error {
	versions, err := m.LineageHistory(ctx, lineageID)
	if err != nil {
		return err
	}

	err = m.locks.WithLock(ctx, lineageID, func(ctx context.Context) error {
		return m.store.SetActive(ctx, lineageID, "", m.now())
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate lineage: %w", err)
	}

	latest := versions[len(versions)-1]
	m.publish(ctx, domain.Event{
		Type:      domain.EventLineageDeactivated,
		Timestamp: m.now(),
		LineageID: lineageID,
		TenantID:  latest.TenantID,
		Version:   latest.Version,
	})
	return nil
}

// publish delivers an event after the mutation committed. Failures are logged and
// do not undo the mutation.
func (m *Manager) publish(ctx context.Context, ev domain.Event) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.logger.Warn("Failed to publish template event",
			"type", ev.Type,
			"template_id", ev.TemplateID,
			"err", err,
		)
	}
}
