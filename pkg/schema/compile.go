package schema

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/value"
)

const defaultRequiredMessage = "This question is required"

// check is a compiled validation rule.
type check func(v any, responses map[string]any) *ValidationError

type field struct {
	id          string
	qtype       domain.QuestionType
	base        Type
	required    bool
	requiredMsg string
	rules       []domain.RuleType
	checks      []check
}

// Validator validates a response set against a compiled question list.
// It is immutable and safe for concurrent use.
type Validator struct {
	fields []field
}

// Result is the outcome of validating a response set.
type Result struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// Err returns the failures as an *AggregateError, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return &AggregateError{Errors: errs}
}

type compileOptions struct {
	states     domain.States
	predicates *registry.Predicates
}

// Option configures Compile.
type Option func(*compileOptions)

// WithEffectiveState applies resolved visibility and requiredness.
// Hidden questions are skipped; the state overrides static requiredness.
func WithEffectiveState(states domain.States) Option {
	return func(o *compileOptions) {
		o.states = states
	}
}

// WithPredicates provides the custom rules referenced by custom validation rules.
func WithPredicates(p *registry.Predicates) Option {
	return func(o *compileOptions) {
		o.predicates = p
	}
}

// Compile builds a Validator for the questions. Definition problems (unknown types,
// rules that do not fit the question, invalid patterns, unknown custom rules) are
// reported here, never during validation.
func Compile(questions []domain.Question, opts ...Option) (*Validator, error) {
	o := &compileOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := &Validator{}
	for _, q := range questions {
		f, err := compileQuestion(q, o.predicates)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		if state, ok := o.states[q.ID]; ok {
			if !state.Visible() {
				continue
			}
			f.required = state.Required()
		}
		v.fields = append(v.fields, *f)
	}
	return v, nil
}

// CheckQuestion reports the definition-time problems of a single question.
func CheckQuestion(q domain.Question, predicates *registry.Predicates) error {
	_, err := compileQuestion(q, predicates)
	return err
}

// compileQuestion returns nil for display-only questions.
func compileQuestion(q domain.Question, predicates *registry.Predicates) (*field, error) {
	desc, err := registry.Describe(q.Type)
	if err != nil {
		return nil, fmt.Errorf("question %q: %w", q.ID, err)
	}

	if desc.Shape == registry.ShapeNone {
		if len(q.Validation) > 0 {
			return nil, &domain.IncompatibleRuleError{
				QuestionID: q.ID,
				Rule:       q.Validation[0].Type,
				Reason:     fmt.Sprintf("%s questions carry no answer", q.Type),
			}
		}
		return nil, nil
	}

	f := &field{
		id:          q.ID,
		qtype:       q.Type,
		base:        TypeFor(desc.Shape, q.Options),
		required:    q.IsRequired(),
		requiredMsg: defaultRequiredMessage,
	}

	declared := make(map[domain.RuleType]bool, len(q.Validation))
	for _, r := range q.Validation {
		declared[r.Type] = true
	}
	var rules []domain.ValidationRule
	for _, r := range desc.DefaultValidation {
		if !declared[r.Type] {
			rules = append(rules, r)
		}
	}
	rules = append(rules, q.Validation...)

	for _, r := range rules {
		if r.Type == domain.RuleRequired {
			if r.Message != "" {
				f.requiredMsg = r.Message
			}
			continue
		}
		c, err := compileRule(q.ID, desc.Shape, r, predicates)
		if err != nil {
			return nil, err
		}
		f.rules = append(f.rules, r.Type)
		f.checks = append(f.checks, c)
	}
	return f, nil
}

func compileRule(id string, shape registry.Shape, r domain.ValidationRule, predicates *registry.Predicates) (check, error) {
	switch r.Type {
	case domain.RuleMin, domain.RuleMax:
		return compileBound(id, shape, r)
	case domain.RulePattern:
		return compilePattern(id, shape, r)
	case domain.RuleCustom:
		name, _ := r.Value.(string)
		fn, ok := predicates.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: question %q references %q", domain.ErrUnknownCustomRule, id, name)
		}
		msg := messageOr(r.Message, "Invalid answer")
		return func(v any, responses map[string]any) *ValidationError {
			if fn(v, responses) {
				return nil
			}
			return &ValidationError{QuestionID: id, Rule: string(r.Type), Message: msg, Value: v}
		}, nil
	}
	return nil, fmt.Errorf("%w: question %q: unknown rule type %q", domain.ErrInvalidQuestion, id, r.Type)
}

func compileBound(id string, shape registry.Shape, r domain.ValidationRule) (check, error) {
	if !shape.Bounded() {
		return nil, &domain.IncompatibleRuleError{
			QuestionID: id,
			Rule:       r.Type,
			Reason:     fmt.Sprintf("%s answers have no numeric or length bound", shape),
		}
	}
	bound, err := ruleNumber(r.Value)
	if err != nil {
		return nil, &domain.IncompatibleRuleError{QuestionID: id, Rule: r.Type, Reason: err.Error()}
	}

	isMin := r.Type == domain.RuleMin
	var msg string
	switch {
	case shape == registry.ShapeString && isMin:
		msg = messageOr(r.Message, fmt.Sprintf("Must be at least %g characters", bound))
	case shape == registry.ShapeString:
		msg = messageOr(r.Message, fmt.Sprintf("Must be at most %g characters", bound))
	case isMin:
		msg = messageOr(r.Message, fmt.Sprintf("Must be at least %g", bound))
	default:
		msg = messageOr(r.Message, fmt.Sprintf("Must be at most %g", bound))
	}

	return func(v any, _ map[string]any) *ValidationError {
		var n float64
		if shape == registry.ShapeString {
			s, _ := v.(string)
			n = float64(utf8.RuneCountInString(s))
		} else {
			n, _ = value.Number(v)
		}
		if (isMin && n < bound) || (!isMin && n > bound) {
			return &ValidationError{QuestionID: id, Rule: string(r.Type), Message: msg, Value: v}
		}
		return nil
	}, nil
}

func compilePattern(id string, shape registry.Shape, r domain.ValidationRule) (check, error) {
	if !shape.Textual() {
		return nil, &domain.IncompatibleRuleError{
			QuestionID: id,
			Rule:       r.Type,
			Reason:     fmt.Sprintf("patterns do not apply to %s answers", shape),
		}
	}
	expr, ok := r.Value.(string)
	if !ok {
		return nil, &domain.IncompatibleRuleError{QuestionID: id, Rule: r.Type, Reason: "pattern must be a string"}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &domain.InvalidPatternError{QuestionID: id, Pattern: expr, Err: err}
	}
	msg := messageOr(r.Message, "Answer has an invalid format")

	return func(v any, _ map[string]any) *ValidationError {
		s, ok := v.(string)
		if !ok || re.MatchString(s) {
			return nil
		}
		return &ValidationError{QuestionID: id, Rule: string(r.Type), Message: msg, Value: v}
	}, nil
}

// ruleNumber decodes a loosely typed bound ("5", 5, 5.0, json.Number).
func ruleNumber(raw any) (float64, error) {
	if raw == nil {
		return 0, fmt.Errorf("bound is missing")
	}
	if _, isBool := raw.(bool); isBool {
		return 0, fmt.Errorf("bound must be numeric, got bool")
	}
	var f float64
	if err := mapstructure.WeakDecode(raw, &f); err != nil {
		return 0, fmt.Errorf("bound must be numeric: %v", raw)
	}
	return f, nil
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// Validate checks the responses and returns every failure, in question order.
func (v *Validator) Validate(responses map[string]any) Result {
	var errs []*ValidationError
	for _, f := range v.fields {
		answer, present := responses[f.id]
		if !present || value.Empty(answer) {
			if f.required {
				errs = append(errs, &ValidationError{QuestionID: f.id, Rule: string(domain.RuleRequired), Message: f.requiredMsg})
			}
			continue
		}

		if f.base != nil {
			if err := f.base.Validate(answer); err != nil {
				errs = append(errs, &ValidationError{QuestionID: f.id, Rule: "type", Message: err.Error(), Value: answer})
				continue
			}
		}

		for _, c := range f.checks {
			if e := c(answer, responses); e != nil {
				errs = append(errs, e)
			}
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Fields returns the ids of the questions the validator checks.
func (v *Validator) Fields() []string {
	ids := make([]string, len(v.fields))
	for i, f := range v.fields {
		ids[i] = f.id
	}
	return ids
}
