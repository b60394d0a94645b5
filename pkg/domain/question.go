package domain

// QuestionType identifies the kind of a question.
type QuestionType string

const (
	QuestionText          QuestionType = "text"
	QuestionNumeric       QuestionType = "numeric"
	QuestionDate          QuestionType = "date"
	QuestionDateTime      QuestionType = "datetime"
	QuestionSingleSelect  QuestionType = "single_select"
	QuestionMultiSelect   QuestionType = "multi_select"
	QuestionYesNo         QuestionType = "yes_no"
	QuestionFileUpload    QuestionType = "file_upload"
	QuestionSectionHeader QuestionType = "section_header"
)

// RuleType is the kind of a validation rule.
type RuleType string

const (
	RuleRequired RuleType = "required"
	RuleMin      RuleType = "min"
	RuleMax      RuleType = "max"
	RulePattern  RuleType = "pattern"
	RuleCustom   RuleType = "custom"
)

// Operator compares a trigger answer with a rule value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Valid reports whether the operator is known.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// Action is the effect a conditional rule has on its target when it fires.
type Action string

const (
	ActionShow     Action = "show"
	ActionHide     Action = "hide"
	ActionRequire  Action = "require"
	ActionOptional Action = "optional"
)

// Valid reports whether the action is known.
func (a Action) Valid() bool {
	switch a {
	case ActionShow, ActionHide, ActionRequire, ActionOptional:
		return true
	}
	return false
}

// Option is a selectable answer of a select question.
type Option struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	Value any    `json:"value" yaml:"value" mapstructure:"value"`
}

// ValidationRule is a declarative constraint on a question's answer.
// Value is loosely typed: a bound for min/max, an expression for pattern,
// a predicate name for custom.
type ValidationRule struct {
	Type    RuleType `json:"type" yaml:"type" mapstructure:"type"`
	Value   any      `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
}

// ConditionalRule is attached to the target question. QuestionID names the trigger.
type ConditionalRule struct {
	QuestionID string   `json:"question_id" yaml:"question_id" mapstructure:"question_id"`
	Operator   Operator `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value      any      `json:"value" yaml:"value" mapstructure:"value"`
	Action     Action   `json:"action" yaml:"action" mapstructure:"action"`
}

// Question is a single item of a FormTemplate.
type Question struct {
	ID                   string            `json:"id" yaml:"id" mapstructure:"id"`
	Type                 QuestionType      `json:"type" yaml:"type" mapstructure:"type"`
	Text                 string            `json:"text" yaml:"text" mapstructure:"text"`
	Required             bool              `json:"required" yaml:"required" mapstructure:"required"`
	HelpText             string            `json:"help_text,omitempty" yaml:"help_text,omitempty" mapstructure:"help_text"`
	DefaultValue         any               `json:"default_value,omitempty" yaml:"default_value,omitempty" mapstructure:"default_value"`
	Options              []Option          `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Validation           []ValidationRule  `json:"validation,omitempty" yaml:"validation,omitempty" mapstructure:"validation"`
	ConditionalLogic     []ConditionalRule `json:"conditional_logic,omitempty" yaml:"conditional_logic,omitempty" mapstructure:"conditional_logic"`
	PrePopulationMapping string            `json:"pre_population_mapping,omitempty" yaml:"pre_population_mapping,omitempty" mapstructure:"pre_population_mapping"`
	Order                int               `json:"order" yaml:"order" mapstructure:"order"`
}

// IsRequired reports the static requiredness of the question: the flag or a
// declared required rule.
func (q Question) IsRequired() bool {
	if q.Required {
		return true
	}
	for _, r := range q.Validation {
		if r.Type == RuleRequired {
			return true
		}
	}
	return false
}

// Clone returns a copy of the question that shares no slices with the receiver.
// Loosely typed values are treated as immutable and shared.
func (q Question) Clone() Question {
	c := q
	if q.Options != nil {
		c.Options = append([]Option(nil), q.Options...)
	}
	if q.Validation != nil {
		c.Validation = append([]ValidationRule(nil), q.Validation...)
	}
	if q.ConditionalLogic != nil {
		c.ConditionalLogic = append([]ConditionalRule(nil), q.ConditionalLogic...)
	}
	return c
}

// CloneQuestions deep-copies a question list.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}

// RuleRef points at one conditional rule of a question.
type RuleRef struct {
	TargetID  string          `json:"target_id"`
	RuleIndex int             `json:"rule_index"`
	Rule      ConditionalRule `json:"rule"`
}
