package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/formwork/pkg/domain"
)

// TemplateDefinition is the authoring format of a template: what people write in
// JSON/YAML files and Markdown frontmatter. Identity, versions and timestamps are
// assigned by the engine, never by the author.
type TemplateDefinition struct {
	ID             string                `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name           string                `json:"name" yaml:"name" mapstructure:"name"`
	TypeID         string                `json:"type_id,omitempty" yaml:"type_id,omitempty" mapstructure:"type_id"`
	TenantID       string                `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty" mapstructure:"tenant_id"`
	Description    string                `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	EffectiveDate  string                `json:"effective_date,omitempty" yaml:"effective_date,omitempty" mapstructure:"effective_date"`
	ExpirationDate string                `json:"expiration_date,omitempty" yaml:"expiration_date,omitempty" mapstructure:"expiration_date"`
	VersionNotes   string                `json:"version_notes,omitempty" yaml:"version_notes,omitempty" mapstructure:"version_notes"`
	Questions      []domain.Question     `json:"questions" yaml:"questions" mapstructure:"questions"`
	BusinessRules  []domain.BusinessRule `json:"business_rules,omitempty" yaml:"business_rules,omitempty" mapstructure:"business_rules"`
}

// ToTemplate converts the definition into a draft template. Question order follows
// the declaration order.
func (d TemplateDefinition) ToTemplate() (*domain.FormTemplate, error) {
	t := &domain.FormTemplate{
		ID:            d.ID,
		Name:          strings.TrimSpace(d.Name),
		TypeID:        d.TypeID,
		TenantID:      d.TenantID,
		Description:   d.Description,
		VersionNotes:  d.VersionNotes,
		Questions:     domain.CloneQuestions(d.Questions),
		BusinessRules: d.BusinessRules,
	}

	if d.EffectiveDate != "" {
		at, err := ParseDate(d.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("%w: effective_date: %v", domain.ErrInvalidTemplate, err)
		}
		t.EffectiveDate = at
	}
	if d.ExpirationDate != "" {
		at, err := ParseDate(d.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: expiration_date: %v", domain.ErrInvalidTemplate, err)
		}
		t.ExpirationDate = &at
	}
	if t.ExpirationDate != nil && !t.EffectiveDate.IsZero() && t.ExpirationDate.Before(t.EffectiveDate) {
		return nil, fmt.Errorf("%w: expiration_date is before effective_date", domain.ErrInvalidTemplate)
	}

	t.Renumber()
	return t, nil
}

// FromTemplate is the inverse of ToTemplate, used when exporting.
func FromTemplate(t *domain.FormTemplate) TemplateDefinition {
	d := TemplateDefinition{
		ID:            t.ID,
		Name:          t.Name,
		TypeID:        t.TypeID,
		TenantID:      t.TenantID,
		Description:   t.Description,
		VersionNotes:  t.VersionNotes,
		Questions:     domain.CloneQuestions(t.Questions),
		BusinessRules: t.BusinessRules,
	}
	if !t.EffectiveDate.IsZero() {
		d.EffectiveDate = t.EffectiveDate.Format(time.RFC3339)
	}
	if t.ExpirationDate != nil {
		d.ExpirationDate = t.ExpirationDate.Format(time.RFC3339)
	}
	return d
}

// ParseDate accepts RFC 3339 timestamps and plain dates.
func ParseDate(s string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, s); err == nil {
		return at, nil
	}
	return time.Parse(time.DateOnly, s)
}
