package schema

import "encoding/json"

type fieldJSON struct {
	QuestionID string   `json:"question_id"`
	Type       string   `json:"type"`
	Shape      string   `json:"value_type,omitempty"`
	Required   bool     `json:"required"`
	Rules      []string `json:"rules,omitempty"`
}

// MarshalJSON describes the compiled validator so clients can mirror the checks.
func (v *Validator) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	out := make([]fieldJSON, len(v.fields))
	for i, f := range v.fields {
		fj := fieldJSON{
			QuestionID: f.id,
			Type:       string(f.qtype),
			Required:   f.required,
		}
		if f.base != nil {
			fj.Shape = f.base.Name()
		}
		for _, r := range f.rules {
			fj.Rules = append(fj.Rules, string(r))
		}
		out[i] = fj
	}
	return json.Marshal(out)
}
