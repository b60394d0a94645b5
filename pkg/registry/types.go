package registry

import "github.com/aretw0/formwork/pkg/domain"

// Shape is the base value shape a question type implies.
type Shape string

const (
	ShapeString   Shape = "string"
	ShapeNumber   Shape = "number"
	ShapeDate     Shape = "date"
	ShapeDateTime Shape = "datetime"
	ShapeChoice   Shape = "choice"
	ShapeChoices  Shape = "choices"
	ShapeBoolean  Shape = "boolean"
	ShapeFile     Shape = "file"
	// ShapeNone marks display-only items that never carry an answer.
	ShapeNone Shape = "none"
)

// Bounded reports whether min/max rules apply to the shape.
func (s Shape) Bounded() bool {
	return s == ShapeString || s == ShapeNumber
}

// Textual reports whether pattern rules apply to the shape.
func (s Shape) Textual() bool {
	return s == ShapeString || s == ShapeDate || s == ShapeDateTime
}

// Descriptor describes a supported question type.
type Descriptor struct {
	Type              domain.QuestionType     `json:"type"`
	Shape             Shape                   `json:"value_shape"`
	SupportsOptions   bool                    `json:"supports_options"`
	DefaultValidation []domain.ValidationRule `json:"default_validation,omitempty"`
}

// MaxTextLength bounds free text answers unless the question declares its own max.
const MaxTextLength = 10000

var descriptors = map[domain.QuestionType]Descriptor{
	domain.QuestionText: {
		Type:  domain.QuestionText,
		Shape: ShapeString,
		DefaultValidation: []domain.ValidationRule{
			{Type: domain.RuleMax, Value: MaxTextLength, Message: "Answer is too long"},
		},
	},
	domain.QuestionNumeric:       {Type: domain.QuestionNumeric, Shape: ShapeNumber},
	domain.QuestionDate:          {Type: domain.QuestionDate, Shape: ShapeDate},
	domain.QuestionDateTime:      {Type: domain.QuestionDateTime, Shape: ShapeDateTime},
	domain.QuestionSingleSelect:  {Type: domain.QuestionSingleSelect, Shape: ShapeChoice, SupportsOptions: true},
	domain.QuestionMultiSelect:   {Type: domain.QuestionMultiSelect, Shape: ShapeChoices, SupportsOptions: true},
	domain.QuestionYesNo:         {Type: domain.QuestionYesNo, Shape: ShapeBoolean},
	domain.QuestionFileUpload:    {Type: domain.QuestionFileUpload, Shape: ShapeFile},
	domain.QuestionSectionHeader: {Type: domain.QuestionSectionHeader, Shape: ShapeNone},
}

// Describe returns the descriptor of a question type.
func Describe(t domain.QuestionType) (Descriptor, error) {
	d, ok := descriptors[t]
	if !ok {
		return Descriptor{}, &domain.UnsupportedQuestionTypeError{Type: t}
	}
	d.DefaultValidation = append([]domain.ValidationRule(nil), d.DefaultValidation...)
	return d, nil
}

// Supported lists every known question type in a stable order.
func Supported() []domain.QuestionType {
	return []domain.QuestionType{
		domain.QuestionText,
		domain.QuestionNumeric,
		domain.QuestionDate,
		domain.QuestionDateTime,
		domain.QuestionSingleSelect,
		domain.QuestionMultiSelect,
		domain.QuestionYesNo,
		domain.QuestionFileUpload,
		domain.QuestionSectionHeader,
	}
}
