package domain

import (
	"maps"
	"time"
)

// FormCategory is a static top-level classification of form types.
type FormCategory struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`
}

// FormType classifies templates inside a category.
type FormType struct {
	ID          string `json:"id" yaml:"id"`
	CategoryID  string `json:"category_id" yaml:"category_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive    bool   `json:"is_active" yaml:"is_active"`
}

// BusinessRule is an opaque workflow trigger carried by a template.
// The engine snapshots and diffs it but never interprets it.
type BusinessRule struct {
	ID        string         `json:"id" yaml:"id" mapstructure:"id"`
	Name      string         `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Event     string         `json:"event,omitempty" yaml:"event,omitempty" mapstructure:"event"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
	Action    string         `json:"action,omitempty" yaml:"action,omitempty" mapstructure:"action"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// FormTemplate is one version of a survey definition.
//
// All versions of the same logical template share a LineageID. Version numbers are
// unique and increasing inside a lineage, and at most one version is active at a time.
type FormTemplate struct {
	ID             string         `json:"id"`
	LineageID      string         `json:"lineage_id"`
	TenantID       string         `json:"tenant_id,omitempty"`
	TypeID         string         `json:"type_id"`
	Name           string         `json:"name"`
	Version        int            `json:"version"`
	Description    string         `json:"description,omitempty"`
	Questions      []Question     `json:"questions"`
	BusinessRules  []BusinessRule `json:"business_rules,omitempty"`
	IsActive       bool           `json:"is_active"`
	EffectiveDate  time.Time      `json:"effective_date"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	ActivatedAt    *time.Time     `json:"activated_at,omitempty"`
	VersionNotes   string         `json:"version_notes,omitempty"`
	CreatedFrom    string         `json:"created_from,omitempty"`
	Revision       int            `json:"revision"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Published reports whether the version is, or once was, active.
// Published versions are immutable history.
func (t *FormTemplate) Published() bool {
	return t.IsActive || t.ActivatedAt != nil
}

// Question returns the question with the given id.
func (t *FormTemplate) Question(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Clone returns a deep copy of the template.
func (t *FormTemplate) Clone() *FormTemplate {
	if t == nil {
		return nil
	}
	c := *t
	c.Questions = CloneQuestions(t.Questions)
	if t.BusinessRules != nil {
		c.BusinessRules = make([]BusinessRule, len(t.BusinessRules))
		for i, br := range t.BusinessRules {
			br.Params = maps.Clone(br.Params)
			c.BusinessRules[i] = br
		}
	}
	if t.ExpirationDate != nil {
		exp := *t.ExpirationDate
		c.ExpirationDate = &exp
	}
	if t.ActivatedAt != nil {
		at := *t.ActivatedAt
		c.ActivatedAt = &at
	}
	return &c
}

// Renumber rewrites every question's Order to its position in the list.
func (t *FormTemplate) Renumber() {
	for i := range t.Questions {
		t.Questions[i].Order = i
	}
}
