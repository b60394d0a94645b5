package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/domain"
)

func TestDiffMarkdown(t *testing.T) {
	oldT := &domain.FormTemplate{
		ID: "v1", Version: 1, Name: "Intake", EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Questions: []domain.Question{
			{ID: "smoker", Type: domain.QuestionYesNo, Text: "Smoker?"},
			{ID: "packs", Type: domain.QuestionNumeric, Text: "Packs", Order: 1},
		},
	}
	newT := oldT.Clone()
	newT.ID, newT.Version = "v2", 2
	newT.Description = "Revised"
	newT.Questions = newT.Questions[:1]
	newT.Questions[0].Text = "Do you smoke?"
	newT.Questions = append(newT.Questions, domain.Question{ID: "alcohol", Type: domain.QuestionYesNo, Text: "Alcohol?", Order: 1})

	md := DiffMarkdown(domain.Diff(oldT, newT))
	for _, want := range []string{
		"# Changes v1 → v2",
		"| description | - | Revised |",
		"**added** `alcohol`",
		"**removed** `packs`",
		"**changed** `smoker`: text",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "Business rules")

	same := DiffMarkdown(domain.Diff(oldT, oldT.Clone()))
	assert.Contains(t, same, "_No changes._")
	assert.Contains(t, DiffMarkdown(nil), "Nothing to compare")
}

func TestStatesMarkdown(t *testing.T) {
	qs := []domain.Question{{ID: "b"}, {ID: "a"}}
	md := StatesMarkdown(qs, domain.States{"a": domain.StateHidden, "b": domain.StateVisibleRequired, "z": domain.StateVisibleOptional})
	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "| b | visible_required |", lines[2])
	assert.Equal(t, "| a | hidden |", lines[3])
	assert.Equal(t, "| z | visible_optional |", lines[4])
}

func TestPrint_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, "# Title\n"))
	assert.Equal(t, "# Title\n", buf.String())
	assert.False(t, IsTerminal(&buf))
}
