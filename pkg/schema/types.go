package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/value"
)

// Type defines the contract for answer shape validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates free text answers.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("expected text, got %T", v)
	}
	return nil
}

// NumberType validates numeric answers, including JSON numbers.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(v any) error {
	if _, ok := value.Number(v); !ok {
		return fmt.Errorf("expected a number, got %T", v)
	}
	return nil
}

// TimeType validates dates or timestamps given as strings in a fixed layout.
type TimeType struct {
	name   string
	layout string
}

func (t *TimeType) Name() string { return t.name }

func (t *TimeType) Validate(v any) error {
	switch x := v.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(t.layout, strings.TrimSpace(x)); err != nil {
			return fmt.Errorf("expected a %s formatted as %s", t.name, t.layout)
		}
		return nil
	}
	return fmt.Errorf("expected a %s, got %T", t.name, v)
}

// BooleanType validates yes/no answers.
type BooleanType struct{}

func (t *BooleanType) Name() string { return "boolean" }

func (t *BooleanType) Validate(v any) error {
	if _, ok := value.Bool(v); !ok {
		return fmt.Errorf("expected yes or no, got %v", v)
	}
	return nil
}

// ChoiceType validates an answer against the option values of a question.
type ChoiceType struct {
	values []any
}

func (t *ChoiceType) Name() string { return "choice" }

func (t *ChoiceType) Validate(v any) error {
	for _, allowed := range t.values {
		if value.Equal(allowed, v) {
			return nil
		}
	}
	return fmt.Errorf("%v is not one of the available options", v)
}

// SliceType validates lists whose elements all satisfy the element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(v any) error {
	items, ok := value.List(v)
	if !ok {
		return fmt.Errorf("expected a list, got %T", v)
	}
	for i, item := range items {
		if err := t.elemType.Validate(item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// FileType validates an uploaded file reference: a non-empty string, or an
// object carrying a non-empty id or url.
type FileType struct{}

func (t *FileType) Name() string { return "file" }

func (t *FileType) Validate(v any) error {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) != "" {
			return nil
		}
	case map[string]any:
		for _, key := range []string{"id", "url"} {
			if s, ok := x[key].(string); ok && s != "" {
				return nil
			}
		}
	}
	return fmt.Errorf("expected a file reference")
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(v any) error {
	return t.validate(v)
}

// --- Factory Functions ---

// String creates a text type validator.
func String() Type { return &StringType{} }

// Number creates a numeric type validator.
func Number() Type { return &NumberType{} }

// Date creates a calendar date validator (YYYY-MM-DD).
func Date() Type { return &TimeType{name: "date", layout: time.DateOnly} }

// DateTime creates an RFC 3339 timestamp validator.
func DateTime() Type { return &TimeType{name: "datetime", layout: time.RFC3339} }

// Boolean creates a yes/no validator.
func Boolean() Type { return &BooleanType{} }

// Choice creates a validator accepting only the given option values.
func Choice(values ...any) Type { return &ChoiceType{values: values} }

// Slice creates a list validator for elements of the given type.
func Slice(elemType Type) Type { return &SliceType{elemType: elemType} }

// File creates a file reference validator.
func File() Type { return &FileType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// TypeFor returns the base type of a value shape. Select shapes are bound to the
// question's option values. ShapeNone has no type.
func TypeFor(shape registry.Shape, options []domain.Option) Type {
	values := make([]any, len(options))
	for i, o := range options {
		values[i] = o.Value
	}
	switch shape {
	case registry.ShapeString:
		return String()
	case registry.ShapeNumber:
		return Number()
	case registry.ShapeDate:
		return Date()
	case registry.ShapeDateTime:
		return DateTime()
	case registry.ShapeBoolean:
		return Boolean()
	case registry.ShapeChoice:
		return Choice(values...)
	case registry.ShapeChoices:
		return Slice(Choice(values...))
	case registry.ShapeFile:
		return File()
	}
	return nil
}
