package logic

import (
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/value"
)

// Evaluate returns the effective state of every question for the given responses.
// It is pure and deterministic. A dependency cycle aborts evaluation with a
// *domain.CyclicDependencyError and no partial result.
func Evaluate(questions []domain.Question, responses map[string]any) (domain.States, error) {
	order, err := BuildGraph(questions).Order()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	states := make(domain.States, len(questions))
	for _, id := range order {
		states[id] = resolve(byID[id], responses, states)
	}
	return states, nil
}

// resolve settles one question. All of its triggers are already in states.
func resolve(q domain.Question, responses map[string]any, states domain.States) domain.EffectiveState {
	var (
		hasShow               bool
		show, hide            bool
		require, makeOptional bool
	)

	for _, r := range q.ConditionalLogic {
		if r.Action == domain.ActionShow {
			hasShow = true
		}
		if !Fires(r, answer(r.QuestionID, responses, states)) {
			continue
		}
		switch r.Action {
		case domain.ActionShow:
			show = true
		case domain.ActionHide:
			hide = true
		case domain.ActionRequire:
			require = true
		case domain.ActionOptional:
			makeOptional = true
		}
	}

	if hide || (hasShow && !show) {
		return domain.StateHidden
	}

	required := q.IsRequired()
	switch {
	case require:
		required = true
	case makeOptional:
		required = false
	}
	if required {
		return domain.StateVisibleRequired
	}
	return domain.StateVisibleOptional
}

// answer returns the trigger's value, or nil when the trigger is hidden, unknown or
// unanswered.
func answer(triggerID string, responses map[string]any, states domain.States) any {
	state, known := states[triggerID]
	if !known || state == domain.StateHidden {
		return nil
	}
	return responses[triggerID]
}

// Fires reports whether a rule fires for the trigger answer. Absent answers never
// fire a rule. Operators never fail: incomparable values simply do not match.
func Fires(r domain.ConditionalRule, answer any) bool {
	if value.Empty(answer) {
		return false
	}
	switch r.Operator {
	case domain.OpEquals:
		return value.Equal(answer, r.Value)
	case domain.OpNotEquals:
		return !value.Equal(answer, r.Value)
	case domain.OpContains:
		return value.Contains(answer, r.Value)
	case domain.OpGreaterThan, domain.OpLessThan:
		a, okA := value.ParseNumber(answer)
		b, okB := value.ParseNumber(r.Value)
		if !okA || !okB {
			return false
		}
		if r.Operator == domain.OpGreaterThan {
			return a > b
		}
		return a < b
	}
	return false
}
