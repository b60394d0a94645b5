package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
)

const intakeYAML = `
name: Smoking Intake
type_id: intake
effective_date: "2026-03-01"
questions:
  - id: smoker
    type: yes_no
    text: Do you smoke?
    required: true
  - id: packs
    type: numeric
    text: Packs per day
    validation:
      - type: min
        value: 1
    conditional_logic:
      - question_id: smoker
        operator: equals
        value: "yes"
        action: show
`

const intakeJSON = `{
  "name": "Smoking Intake",
  "questions": [
    {"id": "smoker", "type": "yes_no", "text": "Do you smoke?"},
    {"id": "packs", "type": "numeric", "text": "Packs per day"}
  ]
}`

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatJSON, Detect([]byte("  \n{\"name\":\"x\"}")))
	assert.Equal(t, FormatYAML, Detect([]byte("name: x")))
	assert.Equal(t, FormatYAML, Detect(nil))
}

func TestParse_YAML(t *testing.T) {
	tpl, err := NewParser().Parse([]byte(intakeYAML))
	require.NoError(t, err)

	assert.Equal(t, "Smoking Intake", tpl.Name)
	assert.Equal(t, "intake", tpl.TypeID)
	assert.Equal(t, 2026, tpl.EffectiveDate.Year())
	require.Len(t, tpl.Questions, 2)
	assert.Equal(t, 1, tpl.Questions[1].Order)
	require.Len(t, tpl.Questions[1].ConditionalLogic, 1)
	assert.Equal(t, domain.ActionShow, tpl.Questions[1].ConditionalLogic[0].Action)
}

func TestParse_JSON(t *testing.T) {
	tpl, err := NewParser().Parse([]byte(intakeJSON))
	require.NoError(t, err)
	assert.Equal(t, "Smoking Intake", tpl.Name)
	assert.Len(t, tpl.Questions, 2)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Missing Name", "questions: []"},
		{"Unknown Field YAML", "name: x\ncolour: red"},
		{"Unknown Field JSON", `{"name":"x","colour":"red"}`},
		{"Malformed JSON", `{"name":`},
		{"Bad Date", "name: x\neffective_date: yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
		})
	}
}

func TestParse_Lenient(t *testing.T) {
	p := &Parser{Lenient: true}
	tpl, err := p.Parse([]byte("name: x\ncolour: red"))
	require.NoError(t, err)
	assert.Equal(t, "x", tpl.Name)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intake.yml")
	require.NoError(t, os.WriteFile(path, []byte(intakeYAML), 0o644))

	tpl, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Smoking Intake", tpl.Name)

	_, err = NewParser().ParseFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestParseFile_ExampleDefinition(t *testing.T) {
	tpl, err := NewParser().ParseFile(filepath.Join("..", "..", "examples", "definitions", "intake.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Patient Intake", tpl.Name)
	require.Len(t, tpl.Questions, 5)
	assert.Equal(t, domain.QuestionSectionHeader, tpl.Questions[0].Type)
	assert.Len(t, tpl.Questions[4].Options, 3)
	assert.NoError(t, questions.Check(tpl.Questions, registry.NewPredicates()))
}
