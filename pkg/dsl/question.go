package dsl

import "github.com/aretw0/formwork/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
type QuestionBuilder struct {
	question domain.Question
}

// Ask sets the type and prompt.
func (q *QuestionBuilder) Ask(typ domain.QuestionType, text string) *QuestionBuilder {
	q.question.Type = typ
	q.question.Text = text
	return q
}

// Text makes this a free-text question.
func (q *QuestionBuilder) Text(text string) *QuestionBuilder {
	return q.Ask(domain.QuestionText, text)
}

// Numeric makes this a number question.
func (q *QuestionBuilder) Numeric(text string) *QuestionBuilder {
	return q.Ask(domain.QuestionNumeric, text)
}

// Date makes this a calendar date question.
func (q *QuestionBuilder) Date(text string) *QuestionBuilder {
	return q.Ask(domain.QuestionDate, text)
}

// YesNo makes this a yes/no question.
func (q *QuestionBuilder) YesNo(text string) *QuestionBuilder {
	return q.Ask(domain.QuestionYesNo, text)
}

// SingleSelect makes this a single choice question. Each value doubles as id and label.
func (q *QuestionBuilder) SingleSelect(text string, values ...string) *QuestionBuilder {
	q.Ask(domain.QuestionSingleSelect, text)
	return q.Options(values...)
}

// MultiSelect makes this a multiple choice question.
func (q *QuestionBuilder) MultiSelect(text string, values ...string) *QuestionBuilder {
	q.Ask(domain.QuestionMultiSelect, text)
	return q.Options(values...)
}

// Section makes this a non-answerable section header.
func (q *QuestionBuilder) Section(text string) *QuestionBuilder {
	return q.Ask(domain.QuestionSectionHeader, text)
}

// Options appends choices.
func (q *QuestionBuilder) Options(values ...string) *QuestionBuilder {
	for _, v := range values {
		q.question.Options = append(q.question.Options, domain.Option{ID: v, Label: v, Value: v})
	}
	return q
}

// Required marks the question as statically required.
func (q *QuestionBuilder) Required() *QuestionBuilder {
	q.question.Required = true
	return q
}

// Help sets the help text.
func (q *QuestionBuilder) Help(text string) *QuestionBuilder {
	q.question.HelpText = text
	return q
}

// Default sets the default answer.
func (q *QuestionBuilder) Default(v any) *QuestionBuilder {
	q.question.DefaultValue = v
	return q
}

// Prefill maps the question to a dot path in external profile data.
func (q *QuestionBuilder) Prefill(path string) *QuestionBuilder {
	q.question.PrePopulationMapping = path
	return q
}

// Validate appends a validation rule.
func (q *QuestionBuilder) Validate(typ domain.RuleType, value any, message string) *QuestionBuilder {
	q.question.Validation = append(q.question.Validation, domain.ValidationRule{
		Type:    typ,
		Value:   value,
		Message: message,
	})
	return q
}

// Min bounds the value (numbers) or length (text) from below.
func (q *QuestionBuilder) Min(v float64) *QuestionBuilder {
	return q.Validate(domain.RuleMin, v, "")
}

// Max bounds the value (numbers) or length (text) from above.
func (q *QuestionBuilder) Max(v float64) *QuestionBuilder {
	return q.Validate(domain.RuleMax, v, "")
}

// Pattern requires a regular expression match.
func (q *QuestionBuilder) Pattern(expr string) *QuestionBuilder {
	return q.Validate(domain.RulePattern, expr, "")
}

// Custom applies a named predicate from the registry.
func (q *QuestionBuilder) Custom(name, message string) *QuestionBuilder {
	return q.Validate(domain.RuleCustom, name, message)
}

// When adds a conditional rule triggered by another question's answer.
func (q *QuestionBuilder) When(trigger string, op domain.Operator, value any, action domain.Action) *QuestionBuilder {
	q.question.ConditionalLogic = append(q.question.ConditionalLogic, domain.ConditionalRule{
		QuestionID: trigger,
		Operator:   op,
		Value:      value,
		Action:     action,
	})
	return q
}

// ShowWhen hides the question unless the condition holds.
func (q *QuestionBuilder) ShowWhen(trigger string, op domain.Operator, value any) *QuestionBuilder {
	return q.When(trigger, op, value, domain.ActionShow)
}

// HideWhen hides the question while the condition holds.
func (q *QuestionBuilder) HideWhen(trigger string, op domain.Operator, value any) *QuestionBuilder {
	return q.When(trigger, op, value, domain.ActionHide)
}

// RequireWhen makes the question required while the condition holds.
func (q *QuestionBuilder) RequireWhen(trigger string, op domain.Operator, value any) *QuestionBuilder {
	return q.When(trigger, op, value, domain.ActionRequire)
}

// OptionalWhen makes the question optional while the condition holds.
func (q *QuestionBuilder) OptionalWhen(trigger string, op domain.Operator, value any) *QuestionBuilder {
	return q.When(trigger, op, value, domain.ActionOptional)
}

// Build returns a copy of the underlying domain.Question.
func (q *QuestionBuilder) Build() domain.Question {
	return q.question.Clone()
}
