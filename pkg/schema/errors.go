package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
)

// ValidationError represents a single answer validation failure.
type ValidationError struct {
	QuestionID string `json:"question_id"`
	Rule       string `json:"rule"`    // required, type, min, max, pattern, custom
	Message    string `json:"message"` // Human-readable reason for failure
	Value      any    `json:"-"`       // The answer that failed; never serialized
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %q: %s", e.QuestionID, e.Message)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap lets callers match response validation failures with errors.Is.
func (e *AggregateError) Unwrap() error { return domain.ErrValidationFailed }

// Details lists the individual failures for the boundary envelope.
func (e *AggregateError) Details() map[string]any {
	return map[string]any{"errors": e.Errors}
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
