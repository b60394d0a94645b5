package questions

import (
	"fmt"
	"maps"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/formwork/pkg/domain"
)

// Patch is a partial update of a question. Nil fields are left unchanged.
// The question id cannot be changed.
type Patch struct {
	Type                 *domain.QuestionType      `json:"type,omitempty" mapstructure:"type"`
	Text                 *string                   `json:"text,omitempty" mapstructure:"text"`
	Required             *bool                     `json:"required,omitempty" mapstructure:"required"`
	HelpText             *string                   `json:"help_text,omitempty" mapstructure:"help_text"`
	DefaultValue         *any                      `json:"default_value,omitempty" mapstructure:"-"`
	Options              *[]domain.Option          `json:"options,omitempty" mapstructure:"options"`
	Validation           *[]domain.ValidationRule  `json:"validation,omitempty" mapstructure:"validation"`
	ConditionalLogic     *[]domain.ConditionalRule `json:"conditional_logic,omitempty" mapstructure:"conditional_logic"`
	PrePopulationMapping *string                   `json:"pre_population_mapping,omitempty" mapstructure:"pre_population_mapping"`
}

// PatchFromMap decodes a loosely typed update (e.g. a JSON body). Unknown keys are
// rejected. A present "default_value" key sets the default, even to null.
func PatchFromMap(fields map[string]any) (Patch, error) {
	var p Patch

	rest := maps.Clone(fields)
	if v, ok := rest["default_value"]; ok {
		p.DefaultValue = &v
		delete(rest, "default_value")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &p,
	})
	if err != nil {
		return Patch{}, err
	}
	if err := dec.Decode(rest); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", domain.ErrInvalidQuestion, err)
	}
	return p, nil
}

func (p Patch) apply(q *domain.Question) {
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Required != nil {
		q.Required = *p.Required
	}
	if p.HelpText != nil {
		q.HelpText = *p.HelpText
	}
	if p.DefaultValue != nil {
		q.DefaultValue = *p.DefaultValue
	}
	if p.Options != nil {
		q.Options = append([]domain.Option(nil), (*p.Options)...)
	}
	if p.Validation != nil {
		q.Validation = append([]domain.ValidationRule(nil), (*p.Validation)...)
	}
	if p.ConditionalLogic != nil {
		q.ConditionalLogic = append([]domain.ConditionalRule(nil), (*p.ConditionalLogic)...)
	}
	if p.PrePopulationMapping != nil {
		q.PrePopulationMapping = *p.PrePopulationMapping
	}
}
