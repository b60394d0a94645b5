package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/registry"
)

func intakeQuestions() []domain.Question {
	return []domain.Question{
		{ID: "intro", Type: domain.QuestionSectionHeader, Text: "About you"},
		{ID: "name", Type: domain.QuestionText, Required: true, Validation: []domain.ValidationRule{
			{Type: domain.RuleMin, Value: 2},
		}},
		{ID: "age", Type: domain.QuestionNumeric, Validation: []domain.ValidationRule{
			{Type: domain.RuleMin, Value: 0},
			{Type: domain.RuleMax, Value: "120", Message: "Age looks wrong"},
		}},
		{ID: "zip", Type: domain.QuestionText, Validation: []domain.ValidationRule{
			{Type: domain.RulePattern, Value: `^\d{5}$`},
		}},
		{ID: "smoker", Type: domain.QuestionYesNo, Validation: []domain.ValidationRule{
			{Type: domain.RuleRequired, Message: "Tell us if you smoke"},
		}},
		{ID: "symptoms", Type: domain.QuestionMultiSelect, Options: []domain.Option{
			{ID: "o1", Label: "Cough", Value: "cough"},
			{ID: "o2", Label: "Fever", Value: "fever"},
		}},
	}
}

func TestCompile_ValidResponses(t *testing.T) {
	v, err := Compile(intakeQuestions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	res := v.Validate(map[string]any{
		"name":     "Ada",
		"age":      36,
		"zip":      "02139",
		"smoker":   "no",
		"symptoms": []any{"cough"},
	})
	if !res.Valid {
		t.Fatalf("expected valid, got %v", res.Err())
	}
	if res.Err() != nil {
		t.Error("Err() should be nil for valid result")
	}
}

func TestCompile_AggregatesAllFailures(t *testing.T) {
	v, err := Compile(intakeQuestions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	res := v.Validate(map[string]any{
		"name":     "A",
		"age":      130.0,
		"zip":      "abc",
		"symptoms": []any{"rash"},
	})
	if res.Valid {
		t.Fatal("expected invalid result")
	}

	got := map[string]string{}
	for _, e := range res.Errors {
		got[e.QuestionID] = e.Rule
	}
	want := map[string]string{
		"name":     "min",
		"age":      "max",
		"zip":      "pattern",
		"smoker":   "required",
		"symptoms": "type",
	}
	for id, rule := range want {
		if got[id] != rule {
			t.Errorf("question %s: rule = %q, want %q", id, got[id], rule)
		}
	}
	if len(res.Errors) != len(want) {
		t.Errorf("got %d errors, want %d", len(res.Errors), len(want))
	}

	for _, e := range res.Errors {
		if e.QuestionID == "smoker" && e.Message != "Tell us if you smoke" {
			t.Errorf("required message = %q", e.Message)
		}
		if e.QuestionID == "age" && e.Message != "Age looks wrong" {
			t.Errorf("max message = %q", e.Message)
		}
	}

	err = res.Err()
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Errorf("Err() should match ErrValidationFailed, got %v", err)
	}
	if domain.CodeOf(err) != domain.CodeValidation {
		t.Errorf("code = %s", domain.CodeOf(err))
	}
	if len(ValidationErrors(err)) != len(want) {
		t.Errorf("ValidationErrors() len = %d", len(ValidationErrors(err)))
	}
}

func TestCompile_EffectiveState(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Type: domain.QuestionYesNo, Required: true},
		{ID: "q2", Type: domain.QuestionNumeric, Required: true, Validation: []domain.ValidationRule{
			{Type: domain.RuleMin, Value: 1},
		}},
		{ID: "q3", Type: domain.QuestionText},
	}

	states := domain.States{
		"q1": domain.StateVisibleOptional,
		"q2": domain.StateHidden,
		"q3": domain.StateVisibleRequired,
	}
	v, err := Compile(questions, WithEffectiveState(states))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	// q2 is hidden: its invalid answer is ignored. q3 became required.
	res := v.Validate(map[string]any{"q2": -5})
	if res.Valid {
		t.Fatal("expected q3 to be required")
	}
	if len(res.Errors) != 1 || res.Errors[0].QuestionID != "q3" || res.Errors[0].Rule != "required" {
		t.Errorf("unexpected errors: %v", res.Err())
	}

	res = v.Validate(map[string]any{"q2": -5, "q3": "ok"})
	if !res.Valid {
		t.Errorf("expected valid, got %v", res.Err())
	}
}

func TestCompile_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		q      domain.Question
		target error
	}{
		{
			name:   "Unsupported Type",
			q:      domain.Question{ID: "q", Type: "slider"},
			target: domain.ErrUnsupportedQuestionType,
		},
		{
			name: "Min On Select",
			q: domain.Question{ID: "q", Type: domain.QuestionSingleSelect, Options: []domain.Option{{ID: "a", Value: "a"}},
				Validation: []domain.ValidationRule{{Type: domain.RuleMin, Value: 1}}},
			target: domain.ErrIncompatibleRule,
		},
		{
			name: "Max On Date",
			q: domain.Question{ID: "q", Type: domain.QuestionDate,
				Validation: []domain.ValidationRule{{Type: domain.RuleMax, Value: 10}}},
			target: domain.ErrIncompatibleRule,
		},
		{
			name: "Non Numeric Bound",
			q: domain.Question{ID: "q", Type: domain.QuestionNumeric,
				Validation: []domain.ValidationRule{{Type: domain.RuleMin, Value: "lots"}}},
			target: domain.ErrIncompatibleRule,
		},
		{
			name: "Invalid Pattern",
			q: domain.Question{ID: "q", Type: domain.QuestionText,
				Validation: []domain.ValidationRule{{Type: domain.RulePattern, Value: "(unclosed"}}},
			target: domain.ErrInvalidPattern,
		},
		{
			name: "Pattern On Number",
			q: domain.Question{ID: "q", Type: domain.QuestionNumeric,
				Validation: []domain.ValidationRule{{Type: domain.RulePattern, Value: `\d+`}}},
			target: domain.ErrIncompatibleRule,
		},
		{
			name: "Unknown Custom Rule",
			q: domain.Question{ID: "q", Type: domain.QuestionText,
				Validation: []domain.ValidationRule{{Type: domain.RuleCustom, Value: "nhs_number"}}},
			target: domain.ErrUnknownCustomRule,
		},
		{
			name: "Rule On Section Header",
			q: domain.Question{ID: "q", Type: domain.QuestionSectionHeader,
				Validation: []domain.ValidationRule{{Type: domain.RuleRequired}}},
			target: domain.ErrIncompatibleRule,
		},
		{
			name: "Unknown Rule Type",
			q: domain.Question{ID: "q", Type: domain.QuestionText,
				Validation: []domain.ValidationRule{{Type: "length"}}},
			target: domain.ErrInvalidQuestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]domain.Question{tt.q})
			if !errors.Is(err, tt.target) {
				t.Errorf("Compile() error = %v, want %v", err, tt.target)
			}
			if CheckQuestion(tt.q, nil) == nil {
				t.Error("CheckQuestion() should fail too")
			}
		})
	}
}

func TestCompile_CustomPredicate(t *testing.T) {
	preds := registry.NewPredicates()
	preds.Register("matches_email_confirmation", func(v any, responses map[string]any) bool {
		return v == responses["email"]
	})

	questions := []domain.Question{
		{ID: "email", Type: domain.QuestionText},
		{ID: "email_confirm", Type: domain.QuestionText, Validation: []domain.ValidationRule{
			{Type: domain.RuleCustom, Value: "matches_email_confirmation", Message: "Emails differ"},
		}},
	}
	v, err := Compile(questions, WithPredicates(preds))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	res := v.Validate(map[string]any{"email": "a@b.c", "email_confirm": "a@b.d"})
	if res.Valid || res.Errors[0].Message != "Emails differ" {
		t.Errorf("expected custom failure, got %+v", res)
	}
	if !v.Validate(map[string]any{"email": "a@b.c", "email_confirm": "a@b.c"}).Valid {
		t.Error("expected matching emails to pass")
	}
}

func TestCompile_DefaultTextLimit(t *testing.T) {
	long := strings.Repeat("x", registry.MaxTextLength+1)

	v, _ := Compile([]domain.Question{{ID: "notes", Type: domain.QuestionText}})
	if v.Validate(map[string]any{"notes": long}).Valid {
		t.Error("default max length should apply")
	}

	// A declared max replaces the default.
	v, _ = Compile([]domain.Question{{ID: "notes", Type: domain.QuestionText, Validation: []domain.ValidationRule{
		{Type: domain.RuleMax, Value: registry.MaxTextLength * 2},
	}}})
	if !v.Validate(map[string]any{"notes": long}).Valid {
		t.Error("declared max should replace the default")
	}
}

// Any response set built only from declared option values passes the validator.
func TestCompile_OptionRoundTrip(t *testing.T) {
	questions := []domain.Question{
		{ID: "color", Type: domain.QuestionSingleSelect, Required: true, Options: []domain.Option{
			{ID: "r", Value: "red"}, {ID: "g", Value: "green"}, {ID: "b", Value: "blue"},
		}},
		{ID: "score", Type: domain.QuestionSingleSelect, Required: true, Options: []domain.Option{
			{ID: "1", Value: 1}, {ID: "2", Value: 2},
		}},
		{ID: "tags", Type: domain.QuestionMultiSelect, Required: true, Options: []domain.Option{
			{ID: "x", Value: "x"}, {ID: "y", Value: "y"},
		}},
	}
	v, err := Compile(questions)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	for _, c := range questions[0].Options {
		for _, s := range questions[1].Options {
			for _, tag := range questions[2].Options {
				res := v.Validate(map[string]any{
					"color": c.Value,
					"score": s.Value,
					"tags":  []any{tag.Value},
				})
				if !res.Valid {
					t.Errorf("option values rejected: %v", res.Err())
				}
			}
		}
	}

	// JSON decoding turns numeric options into float64.
	var decoded map[string]any
	_ = json.Unmarshal([]byte(`{"color":"red","score":2,"tags":["x","y"]}`), &decoded)
	if res := v.Validate(decoded); !res.Valid {
		t.Errorf("decoded payload rejected: %v", res.Err())
	}
}

func TestValidator_MarshalJSON(t *testing.T) {
	v, err := Compile(intakeQuestions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if strings.Contains(s, `"intro"`) {
		t.Error("section headers should not be described")
	}
	if !strings.Contains(s, `"question_id":"name"`) || !strings.Contains(s, `"required":true`) {
		t.Errorf("unexpected description: %s", s)
	}
	if len(v.Fields()) != 5 {
		t.Errorf("Fields() = %v", v.Fields())
	}
}
