package domain

import (
	"reflect"
	"time"
)

// TemplateDiff is the structural difference between two template versions.
// It is designed to be serialized to JSON for review tooling.
type TemplateDiff struct {
	FromID      string `json:"from_id,omitempty"`
	ToID        string `json:"to_id"`
	FromVersion int    `json:"from_version,omitempty"`
	ToVersion   int    `json:"to_version"`

	// Fields lists changed header fields (name, description, dates, type).
	Fields []FieldChange `json:"fields,omitempty"`

	Questions     QuestionDelta     `json:"questions"`
	BusinessRules BusinessRuleDelta `json:"business_rules"`
}

// FieldChange is a changed scalar field.
type FieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// QuestionDelta groups question changes, matched by id.
type QuestionDelta struct {
	Added   []Question       `json:"added,omitempty"`
	Removed []Question       `json:"removed,omitempty"`
	Changed []QuestionChange `json:"changed,omitempty"`
}

// QuestionChange describes a question present in both versions whose content differs.
type QuestionChange struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields"`
	Before Question `json:"before"`
	After  Question `json:"after"`
}

// BusinessRuleDelta groups business rule changes, matched by id.
type BusinessRuleDelta struct {
	Added   []BusinessRule       `json:"added,omitempty"`
	Removed []BusinessRule       `json:"removed,omitempty"`
	Changed []BusinessRuleChange `json:"changed,omitempty"`
}

// BusinessRuleChange holds both sides of a modified business rule.
type BusinessRuleChange struct {
	ID     string       `json:"id"`
	Before BusinessRule `json:"before"`
	After  BusinessRule `json:"after"`
}

// Diff calculates the difference between oldT and newT.
// If oldT is nil, it returns a diff where everything in newT is added.
func Diff(oldT, newT *FormTemplate) *TemplateDiff {
	if newT == nil {
		return nil
	}

	diff := &TemplateDiff{
		ToID:      newT.ID,
		ToVersion: newT.Version,
	}
	if oldT == nil {
		diff.Questions.Added = CloneQuestions(newT.Questions)
		diff.BusinessRules.Added = append([]BusinessRule(nil), newT.BusinessRules...)
		return diff
	}

	diff.FromID = oldT.ID
	diff.FromVersion = oldT.Version
	diff.Fields = diffHeader(oldT, newT)
	diff.Questions = diffQuestions(oldT.Questions, newT.Questions)
	diff.BusinessRules = diffBusinessRules(oldT.BusinessRules, newT.BusinessRules)
	return diff
}

// IsEmpty checks if the diff contains any change.
func (d *TemplateDiff) IsEmpty() bool {
	return len(d.Fields) == 0 &&
		len(d.Questions.Added) == 0 &&
		len(d.Questions.Removed) == 0 &&
		len(d.Questions.Changed) == 0 &&
		len(d.BusinessRules.Added) == 0 &&
		len(d.BusinessRules.Removed) == 0 &&
		len(d.BusinessRules.Changed) == 0
}

func diffHeader(oldT, newT *FormTemplate) []FieldChange {
	var changes []FieldChange
	add := func(field string, from, to any) {
		if !reflect.DeepEqual(from, to) {
			changes = append(changes, FieldChange{Field: field, From: from, To: to})
		}
	}
	add("name", oldT.Name, newT.Name)
	add("type_id", oldT.TypeID, newT.TypeID)
	add("description", oldT.Description, newT.Description)
	if !oldT.EffectiveDate.Equal(newT.EffectiveDate) {
		changes = append(changes, FieldChange{Field: "effective_date", From: oldT.EffectiveDate, To: newT.EffectiveDate})
	}
	if !sameTime(oldT.ExpirationDate, newT.ExpirationDate) {
		changes = append(changes, FieldChange{Field: "expiration_date", From: oldT.ExpirationDate, To: newT.ExpirationDate})
	}
	return changes
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func diffQuestions(oldQs, newQs []Question) QuestionDelta {
	var delta QuestionDelta

	oldByID := make(map[string]Question, len(oldQs))
	for _, q := range oldQs {
		oldByID[q.ID] = q
	}
	newIDs := make(map[string]bool, len(newQs))

	for _, nq := range newQs {
		newIDs[nq.ID] = true
		oq, exists := oldByID[nq.ID]
		if !exists {
			delta.Added = append(delta.Added, nq.Clone())
			continue
		}
		if fields := changedFields(oq, nq); len(fields) > 0 {
			delta.Changed = append(delta.Changed, QuestionChange{
				ID:     nq.ID,
				Fields: fields,
				Before: oq.Clone(),
				After:  nq.Clone(),
			})
		}
	}

	for _, oq := range oldQs {
		if !newIDs[oq.ID] {
			delta.Removed = append(delta.Removed, oq.Clone())
		}
	}
	return delta
}

func changedFields(a, b Question) []string {
	var fields []string
	check := func(name string, x, y any) {
		if !reflect.DeepEqual(x, y) {
			fields = append(fields, name)
		}
	}
	check("type", a.Type, b.Type)
	check("text", a.Text, b.Text)
	check("required", a.Required, b.Required)
	check("help_text", a.HelpText, b.HelpText)
	check("default_value", a.DefaultValue, b.DefaultValue)
	check("options", emptyAsNil(a.Options), emptyAsNil(b.Options))
	check("validation", emptyAsNil(a.Validation), emptyAsNil(b.Validation))
	check("conditional_logic", emptyAsNil(a.ConditionalLogic), emptyAsNil(b.ConditionalLogic))
	check("pre_population_mapping", a.PrePopulationMapping, b.PrePopulationMapping)
	check("order", a.Order, b.Order)
	return fields
}

// emptyAsNil lets an empty slice compare equal to a nil one.
func emptyAsNil[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func diffBusinessRules(oldRs, newRs []BusinessRule) BusinessRuleDelta {
	var delta BusinessRuleDelta

	oldByID := make(map[string]BusinessRule, len(oldRs))
	for _, r := range oldRs {
		oldByID[r.ID] = r
	}
	newIDs := make(map[string]bool, len(newRs))

	for _, nr := range newRs {
		newIDs[nr.ID] = true
		or, exists := oldByID[nr.ID]
		if !exists {
			delta.Added = append(delta.Added, nr)
			continue
		}
		if !reflect.DeepEqual(or, nr) {
			delta.Changed = append(delta.Changed, BusinessRuleChange{ID: nr.ID, Before: or, After: nr})
		}
	}
	for _, or := range oldRs {
		if !newIDs[or.ID] {
			delta.Removed = append(delta.Removed, or)
		}
	}
	return delta
}
