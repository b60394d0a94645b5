package prefill

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/formwork/pkg/domain"
)

type contact struct {
	Phone string `mapstructure:"phone"`
}

type patient struct {
	Name    string   `mapstructure:"name"`
	Contact contact  `mapstructure:"contact"`
	Allergy []string `mapstructure:"allergies"`
}

func TestInitial(t *testing.T) {
	questions := []domain.Question{
		{ID: "header", Type: domain.QuestionSectionHeader, DefaultValue: "ignored"},
		{ID: "name", Type: domain.QuestionText, PrePopulationMapping: "patient.name", DefaultValue: "unknown"},
		{ID: "phone", Type: domain.QuestionText, PrePopulationMapping: "patient.contact.phone"},
		{ID: "first_allergy", Type: domain.QuestionText, PrePopulationMapping: "patient.allergies.0"},
		{ID: "email", Type: domain.QuestionText, PrePopulationMapping: "patient.email", DefaultValue: "none@example.com"},
		{ID: "smoker", Type: domain.QuestionYesNo, DefaultValue: "no"},
		{ID: "notes", Type: domain.QuestionText},
	}
	profile := map[string]any{
		"patient": patient{
			Name:    "Ada",
			Contact: contact{Phone: "555-0100"},
			Allergy: []string{"penicillin"},
		},
	}

	got := Initial(questions, profile)

	assert.Equal(t, map[string]any{
		"name":          "Ada",
		"phone":         "555-0100",
		"first_allergy": "penicillin",
		"email":         "none@example.com",
		"smoker":        "no",
	}, got)
}

func TestInitial_EmptyProfileValueFallsBack(t *testing.T) {
	questions := []domain.Question{
		{ID: "name", Type: domain.QuestionText, PrePopulationMapping: "name", DefaultValue: "unknown"},
	}
	got := Initial(questions, map[string]any{"name": "  "})
	assert.Equal(t, "unknown", got["name"])

	got = Initial(questions, nil)
	assert.Equal(t, "unknown", got["name"])
}

func TestLookup(t *testing.T) {
	data := map[string]any{
		"a": map[string]any{"b": []any{10, map[string]string{"c": "deep"}}},
	}
	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{"a.b.0", 10, true},
		{"a.b.1.c", "deep", true},
		{"a.b.2", nil, false},
		{"a.x", nil, false},
		{"a.b.-1", nil, false},
		{"a..b", nil, false},
	}
	for _, tt := range tests {
		got, ok := Lookup(data, tt.path)
		assert.Equal(t, tt.found, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
