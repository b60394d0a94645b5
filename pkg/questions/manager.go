package questions

import (
	"fmt"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/logic"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/schema"
)

// Add appends a question at the next order index.
func Add(t *domain.FormTemplate, q domain.Question, predicates *registry.Predicates) (*domain.FormTemplate, error) {
	if err := editable(t); err != nil {
		return nil, err
	}
	if _, exists := t.Question(q.ID); exists {
		return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateQuestionID, q.ID)
	}

	out := t.Clone()
	out.Questions = append(out.Questions, q.Clone())
	out.Renumber()
	if err := Check(out.Questions, predicates); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update to the question with the given id.
func Update(t *domain.FormTemplate, id string, patch Patch, predicates *registry.Predicates) (*domain.FormTemplate, error) {
	if err := editable(t); err != nil {
		return nil, err
	}
	pos := indexOf(t, id)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrQuestionNotFound, id)
	}

	out := t.Clone()
	patch.apply(&out.Questions[pos])
	if err := Check(out.Questions, predicates); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a question. Conditional rules of other questions that used it as a
// trigger are removed too and reported.
func Delete(t *domain.FormTemplate, id string) (*domain.FormTemplate, []domain.RuleRef, error) {
	if err := editable(t); err != nil {
		return nil, nil, err
	}
	pos := indexOf(t, id)
	if pos < 0 {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrQuestionNotFound, id)
	}

	out := t.Clone()
	out.Questions = append(out.Questions[:pos], out.Questions[pos+1:]...)

	var removed []domain.RuleRef
	for i := range out.Questions {
		q := &out.Questions[i]
		kept := q.ConditionalLogic[:0]
		for j, r := range q.ConditionalLogic {
			if r.QuestionID == id {
				removed = append(removed, domain.RuleRef{TargetID: q.ID, RuleIndex: j, Rule: r})
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			kept = nil
		}
		q.ConditionalLogic = kept
	}
	out.Renumber()
	return out, removed, nil
}

// Reorder rearranges questions to match ids, which must be an exact permutation of
// the current question ids.
func Reorder(t *domain.FormTemplate, ids []string) (*domain.FormTemplate, error) {
	if err := editable(t); err != nil {
		return nil, err
	}
	if len(ids) != len(t.Questions) {
		return nil, fmt.Errorf("%w: got %d ids for %d questions", domain.ErrInvalidReorderSet, len(ids), len(t.Questions))
	}

	byID := make(map[string]domain.Question, len(t.Questions))
	for _, q := range t.Questions {
		byID[q.ID] = q
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: unknown question %q", domain.ErrInvalidReorderSet, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: question %q listed twice", domain.ErrInvalidReorderSet, id)
		}
		seen[id] = true
	}

	out := t.Clone()
	out.Questions = make([]domain.Question, len(ids))
	for i, id := range ids {
		out.Questions[i] = byID[id].Clone()
	}
	out.Renumber()
	return out, nil
}

// Check validates a whole question list at definition time: ids, types, options,
// validation rules, trigger references and cycles.
func Check(qs []domain.Question, predicates *registry.Predicates) error {
	ids := make(map[string]bool, len(qs))
	for _, q := range qs {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("%w: question id is required", domain.ErrInvalidQuestion)
		}
		if ids[q.ID] {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateQuestionID, q.ID)
		}
		ids[q.ID] = true
	}

	for _, q := range qs {
		if err := CheckQuestion(q, predicates); err != nil {
			return err
		}
	}
	if err := logic.CheckReferences(qs); err != nil {
		return err
	}
	return logic.CheckAcyclic(qs)
}

// CheckQuestion reports the first definition-time problem of a single question.
func CheckQuestion(q domain.Question, predicates *registry.Predicates) error {
	desc, err := registry.Describe(q.Type)
	if err != nil {
		return fmt.Errorf("question %q: %w", q.ID, err)
	}

	if err := checkOptions(q, desc); err != nil {
		return err
	}
	for i, r := range q.ConditionalLogic {
		if !r.Operator.Valid() {
			return fmt.Errorf("%w: question %q rule %d: unknown operator %q", domain.ErrInvalidQuestion, q.ID, i, r.Operator)
		}
		if !r.Action.Valid() {
			return fmt.Errorf("%w: question %q rule %d: unknown action %q", domain.ErrInvalidQuestion, q.ID, i, r.Action)
		}
	}
	return schema.CheckQuestion(q, predicates)
}

func checkOptions(q domain.Question, desc registry.Descriptor) error {
	if !desc.SupportsOptions {
		if len(q.Options) > 0 {
			return fmt.Errorf("%w: question %q: %s questions take no options", domain.ErrInvalidQuestion, q.ID, q.Type)
		}
		return nil
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %q: %s questions need at least one option", domain.ErrInvalidQuestion, q.ID, q.Type)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if o.ID == "" {
			return fmt.Errorf("%w: question %q: option id is required", domain.ErrInvalidQuestion, q.ID)
		}
		if seen[o.ID] {
			return fmt.Errorf("%w: question %q: duplicate option %q", domain.ErrInvalidQuestion, q.ID, o.ID)
		}
		seen[o.ID] = true
	}
	return nil
}

func editable(t *domain.FormTemplate) error {
	if t == nil {
		return domain.ErrTemplateNotFound
	}
	if t.Published() {
		return fmt.Errorf("%w: %s v%d", domain.ErrTemplateImmutable, t.Name, t.Version)
	}
	return nil
}

func indexOf(t *domain.FormTemplate, id string) int {
	for i, q := range t.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}
