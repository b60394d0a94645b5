package loam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/internal/testutils"
	"github.com/aretw0/formwork/pkg/domain"
)

const intakeDoc = `---
name: Patient Intake
type_id: intake
tenant_id: clinic-1
effective_date: "2026-01-01"
questions:
  - id: smoker
    type: yes_no
    text: Do you smoke?
    required: true
  - id: packs
    type: numeric
    text: Packs per day
    conditional_logic:
      - question_id: smoker
        operator: equals
        value: "yes"
        action: show
---
Collected at first visit.
`

func setupCatalog(t *testing.T, files map[string]string) *Catalog {
	t.Helper()
	_, repo := testutils.SetupDefinitionRepo(t, files)
	return New(repo)
}

func TestCatalog_Get(t *testing.T) {
	catalog := setupCatalog(t, map[string]string{"intake.md": intakeDoc})

	tpl, err := catalog.Get(context.Background(), "intake")
	require.NoError(t, err)

	assert.Equal(t, "intake", tpl.ID)
	assert.Equal(t, "Patient Intake", tpl.Name)
	assert.Equal(t, "intake", tpl.TypeID)
	assert.Equal(t, "Collected at first visit.", tpl.Description)
	assert.Equal(t, 2026, tpl.EffectiveDate.Year())
	require.Len(t, tpl.Questions, 2)
	assert.Equal(t, domain.QuestionYesNo, tpl.Questions[0].Type)
	assert.True(t, tpl.Questions[0].Required)
	assert.Equal(t, 1, tpl.Questions[1].Order)
	require.Len(t, tpl.Questions[1].ConditionalLogic, 1)
	assert.Equal(t, domain.ActionShow, tpl.Questions[1].ConditionalLogic[0].Action)
	assert.Equal(t, "yes", tpl.Questions[1].ConditionalLogic[0].Value)
}

func TestCatalog_List(t *testing.T) {
	catalog := setupCatalog(t, map[string]string{
		"intake.md": intakeDoc,
		"discharge.json": `{
  "name": "Discharge",
  "type_id": "discharge",
  "questions": [{"id": "ok", "type": "yes_no", "text": "Ready to go home?"}]
}`,
	})

	drafts, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	names := []string{drafts[0].Name, drafts[1].Name}
	assert.ElementsMatch(t, []string{"Patient Intake", "Discharge"}, names)
}

func TestCatalog_List_DetectsCollisions(t *testing.T) {
	catalog := setupCatalog(t, map[string]string{
		"a.md": "---\nid: intake\nname: A\n---\n",
		"b.md": "---\nid: intake\nname: B\n---\n",
	})

	_, err := catalog.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestCatalog_Get_Missing(t *testing.T) {
	catalog := setupCatalog(t, nil)
	_, err := catalog.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestCatalog_InvalidDate(t *testing.T) {
	catalog := setupCatalog(t, map[string]string{
		"bad.md": "---\nname: Bad\neffective_date: next tuesday\n---\n",
	})
	_, err := catalog.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
}
