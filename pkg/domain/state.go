package domain

// EffectiveState is the resolved visibility and requiredness of a question.
type EffectiveState string

const (
	StateVisibleOptional EffectiveState = "visible_optional"
	StateVisibleRequired EffectiveState = "visible_required"
	StateHidden          EffectiveState = "hidden"
)

// Visible reports whether the question is shown.
func (s EffectiveState) Visible() bool {
	return s != StateHidden
}

// Required reports whether the question must be answered.
func (s EffectiveState) Required() bool {
	return s == StateVisibleRequired
}

// States maps question ids to their effective state.
type States map[string]EffectiveState

// ResponseData is a single submitted answer.
type ResponseData struct {
	QuestionID string         `json:"question_id"`
	Value      any            `json:"value"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ResponseMap folds a list of answers into a map keyed by question id.
// Later entries win.
func ResponseMap(responses []ResponseData) map[string]any {
	out := make(map[string]any, len(responses))
	for _, r := range responses {
		out[r.QuestionID] = r.Value
	}
	return out
}
