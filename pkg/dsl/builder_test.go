package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/registry"
)

func TestBuilder_SmokerFlow(t *testing.T) {
	b := New("Patient Intake").Type("intake").Tenant("clinic-1")

	b.Add("smoker").
		YesNo("Do you smoke?").
		Required()

	b.Add("packs").
		Numeric("How many packs per day?").
		Min(1).
		Max(10).
		ShowWhen("smoker", domain.OpEquals, "yes")

	b.Add("quit").
		Text("Have you tried to quit?").
		ShowWhen("smoker", domain.OpEquals, "yes").
		RequireWhen("packs", domain.OpGreaterThan, 5)

	tpl, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if tpl.Name != "Patient Intake" || tpl.TypeID != "intake" || tpl.TenantID != "clinic-1" {
		t.Errorf("unexpected header: %+v", tpl)
	}
	if len(tpl.Questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(tpl.Questions))
	}
	for i, id := range []string{"smoker", "packs", "quit"} {
		if tpl.Questions[i].ID != id || tpl.Questions[i].Order != i {
			t.Errorf("question %d = %s (order %d), want %s", i, tpl.Questions[i].ID, tpl.Questions[i].Order, id)
		}
	}

	packs := tpl.Questions[1]
	if len(packs.Validation) != 2 || packs.Validation[0].Type != domain.RuleMin {
		t.Errorf("unexpected validation: %+v", packs.Validation)
	}
	quit := tpl.Questions[2]
	if len(quit.ConditionalLogic) != 2 || quit.ConditionalLogic[1].Action != domain.ActionRequire {
		t.Errorf("unexpected conditional logic: %+v", quit.ConditionalLogic)
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New("Form")
	b.Add("a").Text("first")
	b.Add("b").Text("second")
	b.Add("a").Required()

	tpl := b.MustBuild()
	if len(tpl.Questions) != 2 {
		t.Fatalf("Expected 2 questions, got %d", len(tpl.Questions))
	}
	if tpl.Questions[0].ID != "a" || !tpl.Questions[0].Required {
		t.Errorf("expected first question to be required 'a', got %+v", tpl.Questions[0])
	}
}

func TestBuilder_Choices(t *testing.T) {
	b := New("Form")
	b.Add("colour").SingleSelect("Pick a colour", "red", "blue")
	b.Add("symptoms").MultiSelect("Symptoms", "cough", "fever").HideWhen("colour", domain.OpEquals, "red")

	tpl := b.MustBuild()
	if got := len(tpl.Questions[0].Options); got != 2 {
		t.Errorf("Expected 2 options, got %d", got)
	}
	if tpl.Questions[1].Type != domain.QuestionMultiSelect {
		t.Errorf("Expected multi_select, got %s", tpl.Questions[1].Type)
	}
}

func TestBuilder_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*Builder)
		target error
	}{
		{
			name: "Cycle",
			build: func(b *Builder) {
				b.Add("a").Text("A").ShowWhen("b", domain.OpEquals, "x")
				b.Add("b").Text("B").ShowWhen("a", domain.OpEquals, "y")
			},
			target: domain.ErrCyclicDependency,
		},
		{
			name: "Dangling Trigger",
			build: func(b *Builder) {
				b.Add("a").Text("A").ShowWhen("ghost", domain.OpEquals, "x")
			},
			target: domain.ErrDanglingReference,
		},
		{
			name: "Pattern On Number",
			build: func(b *Builder) {
				b.Add("a").Numeric("A").Pattern("^[0-9]+$")
			},
			target: domain.ErrIncompatibleRule,
		},
		{
			name: "Unknown Custom Rule",
			build: func(b *Builder) {
				b.Add("a").Text("A").Custom("nhs_number", "bad number")
			},
			target: domain.ErrUnknownCustomRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("Broken")
			tt.build(b)
			_, err := b.Build()
			if !errors.Is(err, tt.target) {
				t.Errorf("Build() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestBuilder_CustomPredicate(t *testing.T) {
	preds := registry.NewPredicates()
	preds.Register("even", func(v any, _ map[string]any) bool { return true })

	b := New("Form").Predicates(preds)
	b.Add("n").Numeric("N").Custom("even", "must be even")

	if _, err := b.Build(); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
}
