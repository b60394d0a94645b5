package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// templateRecord is the persisted row.
type templateRecord struct {
	ID        string               `gorm:"primaryKey"`
	LineageID string               `gorm:"not null;uniqueIndex:idx_lineage_version"`
	Version   int                  `gorm:"not null;uniqueIndex:idx_lineage_version"`
	TenantID  string               `gorm:"index:idx_template_name"`
	TypeID    string               `gorm:"index:idx_template_name"`
	Name      string               `gorm:"not null;index:idx_template_name"`
	IsActive  bool                 `gorm:"not null;default:false"`
	Revision  int                  `gorm:"not null;default:0"`
	Body      *domain.FormTemplate `gorm:"serializer:json;type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (templateRecord) TableName() string {
	return "form_templates"
}

func toRecord(t *domain.FormTemplate) *templateRecord {
	return &templateRecord{
		ID:        t.ID,
		LineageID: t.LineageID,
		Version:   t.Version,
		TenantID:  t.TenantID,
		TypeID:    t.TypeID,
		Name:      t.Name,
		IsActive:  t.IsActive,
		Revision:  t.Revision,
		Body:      t.Clone(),
	}
}

// Store implements ports.TemplateStore.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&templateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate form_templates: %w", err)
	}
	return &Store{db: db}, nil
}

// Create inserts a new template.
func (s *Store) Create(ctx context.Context, t *domain.FormTemplate) error {
	err := s.db.WithContext(ctx).Create(toRecord(t)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if _, getErr := s.Get(ctx, t.ID); getErr == nil {
			return domain.ErrTemplateExists
		}
		return domain.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// Get retrieves a template by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.FormTemplate, error) {
	var rec templateRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return rec.Body, nil
}

// Update writes the template if the stored revision still equals t.Revision.
func (s *Store) Update(ctx context.Context, t *domain.FormTemplate) error {
	current, err := s.Get(ctx, t.ID)
	if err != nil {
		return err
	}

	next := t.Clone()
	next.Revision++
	next.LineageID = current.LineageID
	next.Version = current.Version

	rec := toRecord(next)
	res := s.db.WithContext(ctx).
		Model(rec).
		Where("revision = ?", t.Revision).
		Select("tenant_id", "type_id", "name", "is_active", "revision", "body", "updated_at").
		Updates(rec)
	if res.Error != nil {
		return fmt.Errorf("failed to update template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRevisionConflict
	}
	t.Revision = next.Revision
	return nil
}

// ListLineage returns every version of a lineage ordered by version.
func (s *Store) ListLineage(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error) {
	var recs []templateRecord
	err := s.db.WithContext(ctx).Where("lineage_id = ?", lineageID).Order("version").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lineage: %w", err)
	}
	return bodies(recs), nil
}

// List returns the templates matching the filter.
func (s *Store) List(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error) {
	q := s.db.WithContext(ctx).Model(&templateRecord{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.TypeID != "" {
		q = q.Where("type_id = ?", filter.TypeID)
	}
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var recs []templateRecord
	if err := q.Order("name, lineage_id, version").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return bodies(recs), nil
}

func bodies(recs []templateRecord) []*domain.FormTemplate {
	out := make([]*domain.FormTemplate, len(recs))
	for i := range recs {
		out[i] = recs[i].Body
	}
	return out
}

// SetActive switches the active version while holding row locks on the lineage.
func (s *Store) SetActive(ctx context.Context, lineageID, templateID string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recs []templateRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("lineage_id = ?", lineageID).
			Find(&recs).Error
		if err != nil {
			return fmt.Errorf("failed to lock lineage: %w", err)
		}

		changed, err := ports.ApplyActive(bodies(recs), templateID, at)
		if err != nil {
			return err
		}
		for _, t := range changed {
			rec := toRecord(t)
			err := tx.Model(rec).
				Select("is_active", "revision", "body", "updated_at").
				Updates(rec).Error
			if err != nil {
				return fmt.Errorf("failed to update template: %w", err)
			}
		}
		return nil
	})
}
