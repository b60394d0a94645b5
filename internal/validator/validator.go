package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/logic"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/value"
)

// Severity of a lint problem. Errors block creation, warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one finding of the linter.
type Problem struct {
	QuestionID string           `json:"question_id,omitempty"`
	Severity   Severity         `json:"severity"`
	Code       domain.ErrorCode `json:"code"`
	Message    string           `json:"message"`
}

func (p Problem) String() string {
	if p.QuestionID == "" {
		return fmt.Sprintf("[%s] %s", p.Severity, p.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", p.Severity, p.QuestionID, p.Message)
}

// Report collects every problem of a template, unlike the engine which stops at
// the first one.
type Report struct {
	Problems []Problem `json:"problems"`
}

// OK reports whether the report holds no errors.
func (r Report) OK() bool {
	for _, p := range r.Problems {
		if p.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Err folds the errors of the report into one error, or nil.
func (r Report) Err() error {
	var lines []string
	for _, p := range r.Problems {
		if p.Severity == SeverityError {
			lines = append(lines, p.String())
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrInvalidTemplate, len(lines), strings.Join(lines, "\n- "))
}

func (r *Report) add(qid string, sev Severity, err error) {
	r.Problems = append(r.Problems, Problem{
		QuestionID: qid,
		Severity:   sev,
		Code:       domain.CodeOf(err),
		Message:    err.Error(),
	})
}

func (r *Report) warn(qid, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{
		QuestionID: qid,
		Severity:   SeverityWarning,
		Code:       domain.CodeValidation,
		Message:    fmt.Sprintf(format, args...),
	})
}

// Lint checks a template definition. A nil predicate registry means custom rules
// are reported as unknown.
func Lint(t *domain.FormTemplate, predicates *registry.Predicates) Report {
	var r Report
	if t == nil {
		r.add("", SeverityError, domain.ErrInvalidTemplate)
		return r
	}
	if strings.TrimSpace(t.Name) == "" {
		r.add("", SeverityError, fmt.Errorf("%w: name is required", domain.ErrInvalidTemplate))
	}
	if t.ExpirationDate != nil && t.ExpirationDate.Before(t.EffectiveDate) {
		r.add("", SeverityError, fmt.Errorf("%w: expiration date is before effective date", domain.ErrInvalidTemplate))
	}

	ids := make(map[string]bool, len(t.Questions))
	byID := make(map[string]domain.Question, len(t.Questions))
	unique := make([]domain.Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		switch {
		case strings.TrimSpace(q.ID) == "":
			r.add("", SeverityError, fmt.Errorf("%w: question id is required", domain.ErrInvalidQuestion))
			continue
		case ids[q.ID]:
			r.add(q.ID, SeverityError, fmt.Errorf("%w: %q", domain.ErrDuplicateQuestionID, q.ID))
			continue
		}
		ids[q.ID] = true
		byID[q.ID] = q
		unique = append(unique, q)

		if err := questions.CheckQuestion(q, predicates); err != nil {
			r.add(q.ID, SeverityError, err)
		}
		if strings.TrimSpace(q.Text) == "" {
			r.warn(q.ID, "question has no text")
		}
	}

	for _, q := range unique {
		for _, rule := range q.ConditionalLogic {
			trigger, ok := byID[rule.QuestionID]
			if !ok {
				r.add(q.ID, SeverityError, &domain.DanglingReferenceError{QuestionID: q.ID, TriggerID: rule.QuestionID})
				continue
			}
			lintTrigger(&r, q.ID, trigger, rule)
		}
	}

	if err := logic.CheckAcyclic(unique); err != nil {
		r.add("", SeverityError, err)
	}
	return r
}

func lintTrigger(r *Report, target string, trigger domain.Question, rule domain.ConditionalRule) {
	if trigger.Type == domain.QuestionSectionHeader {
		r.warn(target, "rule on %q never fires: section headers take no answer", trigger.ID)
		return
	}
	if len(trigger.Options) == 0 || rule.Operator == domain.OpGreaterThan || rule.Operator == domain.OpLessThan {
		return
	}
	for _, o := range trigger.Options {
		if value.Equal(o.Value, rule.Value) || value.Equal(o.ID, rule.Value) {
			return
		}
	}
	r.warn(target, "rule on %q compares against %v, which is not one of its options", trigger.ID, rule.Value)
}
