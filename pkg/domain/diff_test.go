package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func baseTemplate() *FormTemplate {
	return &FormTemplate{
		ID:            "tpl-1",
		LineageID:     "lin-1",
		Name:          "Intake",
		Version:       1,
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Questions: []Question{
			{ID: "q1", Type: QuestionYesNo, Text: "Smoker?", Order: 0},
			{ID: "q2", Type: QuestionNumeric, Text: "Packs per day", Order: 1},
		},
		BusinessRules: []BusinessRule{{ID: "br1", Event: "submitted", Action: "notify"}},
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*FormTemplate)
		wantAdded   []string
		wantRemoved []string
		wantChanged map[string][]string
		wantFields  []string
		wantRules   [3]int // added, removed, changed
	}{
		{
			name:   "No Changes",
			mutate: func(*FormTemplate) {},
		},
		{
			name: "Question Added",
			mutate: func(t *FormTemplate) {
				t.Questions = append(t.Questions, Question{ID: "q3", Type: QuestionText, Order: 2})
			},
			wantAdded: []string{"q3"},
		},
		{
			name: "Question Removed",
			mutate: func(t *FormTemplate) {
				t.Questions = t.Questions[:1]
			},
			wantRemoved: []string{"q2"},
		},
		{
			name: "Question Text And Rules Changed",
			mutate: func(t *FormTemplate) {
				t.Questions[1].Text = "Cigarettes per day"
				t.Questions[1].ConditionalLogic = []ConditionalRule{
					{QuestionID: "q1", Operator: OpEquals, Value: "yes", Action: ActionShow},
				}
			},
			wantChanged: map[string][]string{"q2": {"text", "conditional_logic"}},
		},
		{
			name: "Reorder Is A Change",
			mutate: func(t *FormTemplate) {
				t.Questions[0], t.Questions[1] = t.Questions[1], t.Questions[0]
				t.Renumber()
			},
			wantChanged: map[string][]string{"q2": {"order"}, "q1": {"order"}},
		},
		{
			name: "Header And Business Rules",
			mutate: func(t *FormTemplate) {
				t.Description = "Revised"
				t.BusinessRules[0].Action = "escalate"
				t.BusinessRules = append(t.BusinessRules, BusinessRule{ID: "br2"})
			},
			wantFields: []string{"description"},
			wantRules:  [3]int{1, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldT := baseTemplate()
			newT := oldT.Clone()
			newT.ID = "tpl-2"
			newT.Version = 2
			tt.mutate(newT)

			d := Diff(oldT, newT)
			if d == nil {
				t.Fatal("Diff returned nil")
			}
			if got := questionIDs(d.Questions.Added); !equalStrings(got, tt.wantAdded) {
				t.Errorf("added = %v, want %v", got, tt.wantAdded)
			}
			if got := questionIDs(d.Questions.Removed); !equalStrings(got, tt.wantRemoved) {
				t.Errorf("removed = %v, want %v", got, tt.wantRemoved)
			}
			gotChanged := map[string][]string{}
			for _, c := range d.Questions.Changed {
				gotChanged[c.ID] = c.Fields
			}
			if len(gotChanged) != len(tt.wantChanged) {
				t.Errorf("changed = %v, want %v", gotChanged, tt.wantChanged)
			}
			for id, fields := range tt.wantChanged {
				if !reflect.DeepEqual(gotChanged[id], fields) {
					t.Errorf("changed[%s] = %v, want %v", id, gotChanged[id], fields)
				}
			}
			var gotFields []string
			for _, f := range d.Fields {
				gotFields = append(gotFields, f.Field)
			}
			if !equalStrings(gotFields, tt.wantFields) {
				t.Errorf("fields = %v, want %v", gotFields, tt.wantFields)
			}
			gotRules := [3]int{len(d.BusinessRules.Added), len(d.BusinessRules.Removed), len(d.BusinessRules.Changed)}
			if gotRules != tt.wantRules {
				t.Errorf("business rules = %v, want %v", gotRules, tt.wantRules)
			}
			empty := len(tt.wantAdded)+len(tt.wantRemoved)+len(tt.wantChanged)+len(tt.wantFields) == 0 && tt.wantRules == [3]int{}
			if d.IsEmpty() != empty {
				t.Errorf("IsEmpty = %v, want %v", d.IsEmpty(), empty)
			}
		})
	}
}

func TestDiff_NilOld(t *testing.T) {
	d := Diff(nil, baseTemplate())
	if len(d.Questions.Added) != 2 || len(d.BusinessRules.Added) != 1 {
		t.Fatalf("expected everything added, got %+v", d)
	}
	if Diff(baseTemplate(), nil) != nil {
		t.Error("expected nil diff for nil new template")
	}
}

func TestDiff_Serialization(t *testing.T) {
	oldT := baseTemplate()
	newT := oldT.Clone()
	newT.Questions = newT.Questions[:1]

	data, err := json.Marshal(Diff(oldT, newT))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"removed"`) || strings.Contains(s, `"added"`) {
		t.Errorf("unexpected JSON: %s", s)
	}
}

func TestClone_Independent(t *testing.T) {
	orig := baseTemplate()
	orig.BusinessRules[0].Params = map[string]any{"to": "nurse"}
	c := orig.Clone()

	c.Questions[0].Text = "changed"
	c.Questions[0].Options = append(c.Questions[0].Options, Option{ID: "x"})
	c.BusinessRules[0].Params["to"] = "doctor"

	if orig.Questions[0].Text != "Smoker?" || len(orig.Questions[0].Options) != 0 {
		t.Error("clone shares question data with original")
	}
	if orig.BusinessRules[0].Params["to"] != "nurse" {
		t.Error("clone shares business rule params with original")
	}
}

func questionIDs(qs []Question) []string {
	var ids []string
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
