package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		typ     domain.QuestionType
		shape   Shape
		options bool
	}{
		{domain.QuestionText, ShapeString, false},
		{domain.QuestionNumeric, ShapeNumber, false},
		{domain.QuestionDate, ShapeDate, false},
		{domain.QuestionDateTime, ShapeDateTime, false},
		{domain.QuestionSingleSelect, ShapeChoice, true},
		{domain.QuestionMultiSelect, ShapeChoices, true},
		{domain.QuestionYesNo, ShapeBoolean, false},
		{domain.QuestionFileUpload, ShapeFile, false},
		{domain.QuestionSectionHeader, ShapeNone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			d, err := Describe(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, d.Shape)
			assert.Equal(t, tt.options, d.SupportsOptions)
		})
	}
	assert.Len(t, Supported(), len(tests))
}

func TestDescribe_Unsupported(t *testing.T) {
	_, err := Describe("slider")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedQuestionType))

	var typed *domain.UnsupportedQuestionTypeError
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, domain.QuestionType("slider"), typed.Type)
}

func TestDescribe_DefaultsAreCopied(t *testing.T) {
	d, err := Describe(domain.QuestionText)
	require.NoError(t, err)
	require.Len(t, d.DefaultValidation, 1)
	d.DefaultValidation[0].Value = 1

	again, _ := Describe(domain.QuestionText)
	assert.Equal(t, MaxTextLength, again.DefaultValidation[0].Value)
}

func TestPredicates(t *testing.T) {
	p := NewPredicates()
	_, ok := p.Lookup("even")
	assert.False(t, ok)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Register("even", func(v any, _ map[string]any) bool {
				n, ok := v.(int)
				return ok && n%2 == 0
			})
		}()
	}
	wg.Wait()

	fn, ok := p.Lookup("even")
	require.True(t, ok)
	assert.True(t, fn(4, nil))
	assert.False(t, fn(3, nil))
	assert.Equal(t, []string{"even"}, p.Names())

	var nilReg *Predicates
	_, ok = nilReg.Lookup("even")
	assert.False(t, ok)
}
