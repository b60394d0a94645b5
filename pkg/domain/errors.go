package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is returned when a template id cannot be resolved.
var ErrTemplateNotFound = errors.New("template not found")

// ErrQuestionNotFound is returned when a question id does not exist in the template.
var ErrQuestionNotFound = errors.New("question not found")

// ErrDuplicateQuestionID is returned when adding a question whose id is already taken.
var ErrDuplicateQuestionID = errors.New("duplicate question id")

// ErrInvalidReorderSet is returned when a reorder list is not a permutation of the current ids.
var ErrInvalidReorderSet = errors.New("invalid reorder set")

// ErrTemplateImmutable is returned when editing a published version in place.
var ErrTemplateImmutable = errors.New("template version is immutable")

// ErrVersionConflict is returned when a (lineage, version) pair already exists.
var ErrVersionConflict = errors.New("version already exists in lineage")

// ErrRevisionConflict is returned when a template was changed since it was read.
var ErrRevisionConflict = errors.New("template revision conflict")

// ErrTemplateExists is returned when creating a template whose id is taken.
var ErrTemplateExists = errors.New("template already exists")

var (
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	ErrCyclicDependency        = errors.New("cyclic dependency")
	ErrIncompatibleRule        = errors.New("incompatible validation rule")
	ErrInvalidPattern          = errors.New("invalid pattern")
	ErrDanglingReference       = errors.New("dangling trigger reference")
	ErrUnknownCustomRule       = errors.New("unknown custom rule")
	ErrInvalidQuestion         = errors.New("invalid question")
	ErrInvalidTemplate         = errors.New("invalid template")
	// ErrInvalidRequest marks malformed boundary input (bad JSON, schema mismatch).
	ErrInvalidRequest          = errors.New("invalid request")
)

// UnsupportedQuestionTypeError reports a question type missing from the registry.
type UnsupportedQuestionTypeError struct {
	Type QuestionType
}

func (e *UnsupportedQuestionTypeError) Error() string {
	return fmt.Sprintf("unsupported question type %q", e.Type)
}

func (e *UnsupportedQuestionTypeError) Unwrap() error { return ErrUnsupportedQuestionType }

// Details exposes the offending type to the boundary.
func (e *UnsupportedQuestionTypeError) Details() map[string]any {
	return map[string]any{"type": string(e.Type)}
}

// CyclicDependencyError lists the questions that take part in a conditional cycle.
type CyclicDependencyError struct {
	QuestionIDs []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency between questions: %s", strings.Join(e.QuestionIDs, ", "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

func (e *CyclicDependencyError) Details() map[string]any {
	return map[string]any{"question_ids": e.QuestionIDs}
}

// IncompatibleRuleError reports a validation rule that cannot apply to the question's shape.
type IncompatibleRuleError struct {
	QuestionID string
	Rule       RuleType
	Reason     string
}

func (e *IncompatibleRuleError) Error() string {
	return fmt.Sprintf("question %q: rule %q: %s", e.QuestionID, e.Rule, e.Reason)
}

func (e *IncompatibleRuleError) Unwrap() error { return ErrIncompatibleRule }

func (e *IncompatibleRuleError) Details() map[string]any {
	return map[string]any{"question_id": e.QuestionID, "rule": string(e.Rule), "reason": e.Reason}
}

// InvalidPatternError reports a pattern rule that does not compile.
type InvalidPatternError struct {
	QuestionID string
	Pattern    string
	Err        error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("question %q: invalid pattern %q: %v", e.QuestionID, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() []error { return []error{ErrInvalidPattern, e.Err} }

func (e *InvalidPatternError) Details() map[string]any {
	return map[string]any{"question_id": e.QuestionID, "pattern": e.Pattern}
}

// DanglingReferenceError reports a conditional rule whose trigger does not exist.
type DanglingReferenceError struct {
	QuestionID string
	TriggerID  string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("question %q: conditional rule references unknown question %q", e.QuestionID, e.TriggerID)
}

func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }

func (e *DanglingReferenceError) Details() map[string]any {
	return map[string]any{"question_id": e.QuestionID, "trigger_id": e.TriggerID}
}
