package questions

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/domain"
)

func draft() *domain.FormTemplate {
	return &domain.FormTemplate{
		ID:        "tpl-1",
		LineageID: "lin-1",
		Name:      "Intake",
		Version:   1,
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionYesNo, Text: "Do you smoke?", Required: true, Order: 0},
			{ID: "q2", Type: domain.QuestionNumeric, Text: "How many per day?", Order: 1,
				ConditionalLogic: []domain.ConditionalRule{
					{QuestionID: "q1", Operator: domain.OpEquals, Value: "yes", Action: domain.ActionShow},
				}},
			{ID: "q3", Type: domain.QuestionText, Text: "Anything else?", Order: 2},
		},
	}
}

func assertContiguous(t *testing.T, tpl *domain.FormTemplate) {
	t.Helper()
	for i, q := range tpl.Questions {
		assert.Equal(t, i, q.Order, "question %s", q.ID)
	}
}

func TestAdd(t *testing.T) {
	orig := draft()
	out, err := Add(orig, domain.Question{ID: "q4", Type: domain.QuestionSingleSelect, Text: "Pick one",
		Options: []domain.Option{{ID: "a", Label: "A", Value: "a"}},
		ConditionalLogic: []domain.ConditionalRule{
			{QuestionID: "q2", Operator: domain.OpGreaterThan, Value: 5, Action: domain.ActionRequire},
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, out.Questions, 4)
	assert.Equal(t, 3, out.Questions[3].Order)
	assert.Len(t, orig.Questions, 3, "input must not be mutated")
	assertContiguous(t, out)
}

func TestAdd_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		q      domain.Question
		target error
	}{
		{"Duplicate ID", domain.Question{ID: "q1", Type: domain.QuestionText}, domain.ErrDuplicateQuestionID},
		{"Empty ID", domain.Question{ID: " ", Type: domain.QuestionText}, domain.ErrInvalidQuestion},
		{"Unsupported Type", domain.Question{ID: "q9", Type: "slider"}, domain.ErrUnsupportedQuestionType},
		{"Select Without Options", domain.Question{ID: "q9", Type: domain.QuestionSingleSelect}, domain.ErrInvalidQuestion},
		{"Options On Text", domain.Question{ID: "q9", Type: domain.QuestionText, Options: []domain.Option{{ID: "a"}}}, domain.ErrInvalidQuestion},
		{"Duplicate Option", domain.Question{ID: "q9", Type: domain.QuestionMultiSelect, Options: []domain.Option{{ID: "a"}, {ID: "a"}}}, domain.ErrInvalidQuestion},
		{"Dangling Trigger", domain.Question{ID: "q9", Type: domain.QuestionText, ConditionalLogic: []domain.ConditionalRule{
			{QuestionID: "ghost", Operator: domain.OpEquals, Value: 1, Action: domain.ActionShow},
		}}, domain.ErrDanglingReference},
		{"Unknown Operator", domain.Question{ID: "q9", Type: domain.QuestionText, ConditionalLogic: []domain.ConditionalRule{
			{QuestionID: "q1", Operator: "like", Value: 1, Action: domain.ActionShow},
		}}, domain.ErrInvalidQuestion},
		{"Incompatible Rule", domain.Question{ID: "q9", Type: domain.QuestionYesNo, Validation: []domain.ValidationRule{
			{Type: domain.RuleMax, Value: 3},
		}}, domain.ErrIncompatibleRule},
		{"Self Cycle", domain.Question{ID: "q9", Type: domain.QuestionText, ConditionalLogic: []domain.ConditionalRule{
			{QuestionID: "q9", Operator: domain.OpEquals, Value: "x", Action: domain.ActionHide},
		}}, domain.ErrCyclicDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := draft()
			out, err := Add(orig, tt.q, nil)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			assert.Len(t, orig.Questions, 3)
		})
	}
}

func TestPublishedTemplateIsImmutable(t *testing.T) {
	tpl := draft()
	now := time.Now()
	tpl.ActivatedAt = &now

	_, err := Add(tpl, domain.Question{ID: "q9", Type: domain.QuestionText}, nil)
	assert.ErrorIs(t, err, domain.ErrTemplateImmutable)
	_, err = Reorder(tpl, []string{"q3", "q2", "q1"})
	assert.ErrorIs(t, err, domain.ErrTemplateImmutable)
	_, _, err = Delete(tpl, "q3")
	assert.ErrorIs(t, err, domain.ErrTemplateImmutable)
	_, err = Update(tpl, "q3", Patch{}, nil)
	assert.ErrorIs(t, err, domain.ErrTemplateImmutable)
}

func TestUpdate(t *testing.T) {
	text := "Cigarettes per day"
	out, err := Update(draft(), "q2", Patch{Text: &text}, nil)
	require.NoError(t, err)
	assert.Equal(t, text, out.Questions[1].Text)
	assert.Len(t, out.Questions[1].ConditionalLogic, 1)

	_, err = Update(draft(), "missing", Patch{Text: &text}, nil)
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)

	// Making q1 depend on q2 closes a cycle.
	rules := []domain.ConditionalRule{{QuestionID: "q2", Operator: domain.OpGreaterThan, Value: 1, Action: domain.ActionShow}}
	_, err = Update(draft(), "q1", Patch{ConditionalLogic: &rules}, nil)
	var cyc *domain.CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"q1", "q2"}, cyc.QuestionIDs)
}

func TestPatchFromMap(t *testing.T) {
	p, err := PatchFromMap(map[string]any{
		"text":          "New text",
		"required":      true,
		"default_value": nil,
		"validation": []any{
			map[string]any{"type": "min", "value": 1.0},
		},
	})
	require.NoError(t, err)

	out, err := Update(draft(), "q2", p, nil)
	require.NoError(t, err)
	q := out.Questions[1]
	assert.Equal(t, "New text", q.Text)
	assert.True(t, q.Required)
	require.Len(t, q.Validation, 1)
	assert.Equal(t, domain.RuleMin, q.Validation[0].Type)

	_, err = PatchFromMap(map[string]any{"id": "renamed"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
}

func TestDelete_RemovesDanglingRules(t *testing.T) {
	out, removed, err := Delete(draft(), "q1")
	require.NoError(t, err)
	require.Len(t, out.Questions, 2)
	assert.Equal(t, "q2", out.Questions[0].ID)
	assert.Empty(t, out.Questions[0].ConditionalLogic)
	assertContiguous(t, out)

	require.Len(t, removed, 1)
	assert.Equal(t, "q2", removed[0].TargetID)
	assert.Equal(t, "q1", removed[0].Rule.QuestionID)

	_, _, err = Delete(draft(), "ghost")
	assert.ErrorIs(t, err, domain.ErrQuestionNotFound)
}

func TestReorder(t *testing.T) {
	out, err := Reorder(draft(), []string{"q3", "q1", "q2"})
	require.NoError(t, err)
	assert.Equal(t, "q3", out.Questions[0].ID)
	assertContiguous(t, out)

	bad := [][]string{
		{"q1", "q2"},
		{"q1", "q2", "q2"},
		{"q1", "q2", "q4"},
		{"q1", "q2", "q3", "q4"},
	}
	for _, ids := range bad {
		orig := draft()
		_, err := Reorder(orig, ids)
		assert.ErrorIs(t, err, domain.ErrInvalidReorderSet, "ids %v", ids)
		assert.Equal(t, draft().Questions, orig.Questions, "failed reorder must leave template untouched")
	}
}

// After any sequence of successful edits, orders are exactly 0..N-1 and ids are unique.
func TestOrderInvariantUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tpl := draft()
	next := 10

	for step := 0; step < 200; step++ {
		var out *domain.FormTemplate
		var err error

		switch rng.Intn(4) {
		case 0:
			out, err = Add(tpl, domain.Question{ID: fmt.Sprintf("g%d", next), Type: domain.QuestionText}, nil)
			next++
		case 1:
			if len(tpl.Questions) == 0 {
				continue
			}
			out, _, err = Delete(tpl, tpl.Questions[rng.Intn(len(tpl.Questions))].ID)
		case 2:
			ids := make([]string, len(tpl.Questions))
			for i, q := range tpl.Questions {
				ids[i] = q.ID
			}
			rng.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
			out, err = Reorder(tpl, ids)
		case 3:
			// Invalid permutation is rejected and changes nothing.
			_, err = Reorder(tpl, []string{"nope"})
			assert.ErrorIs(t, err, domain.ErrInvalidReorderSet)
			continue
		}
		require.NoError(t, err)
		tpl = out

		seen := map[string]bool{}
		for i, q := range tpl.Questions {
			require.Equal(t, i, q.Order)
			require.False(t, seen[q.ID], "duplicate id %s", q.ID)
			seen[q.ID] = true
		}
	}
}
