package domain

import "errors"

// ErrorCode is the stable machine-readable code exposed at the boundary.
type ErrorCode string

const (
	CodeValidation              ErrorCode = "VALIDATION_ERROR"
	CodeTemplateNotFound        ErrorCode = "TEMPLATE_NOT_FOUND"
	CodeQuestionNotFound        ErrorCode = "QUESTION_NOT_FOUND"
	CodeDuplicateQuestionID     ErrorCode = "DUPLICATE_QUESTION_ID"
	CodeCyclicDependency        ErrorCode = "CYCLIC_DEPENDENCY"
	CodeInvalidReorderSet       ErrorCode = "INVALID_REORDER_SET"
	CodeUnsupportedQuestionType ErrorCode = "UNSUPPORTED_QUESTION_TYPE"
	CodeTemplateImmutable       ErrorCode = "TEMPLATE_IMMUTABLE"
	CodeConflict                ErrorCode = "CONFLICT"
	CodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// CodeOf maps an error to its boundary code. Unknown errors are internal.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTemplateNotFound):
		return CodeTemplateNotFound
	case errors.Is(err, ErrQuestionNotFound):
		return CodeQuestionNotFound
	case errors.Is(err, ErrDuplicateQuestionID):
		return CodeDuplicateQuestionID
	case errors.Is(err, ErrCyclicDependency):
		return CodeCyclicDependency
	case errors.Is(err, ErrInvalidReorderSet):
		return CodeInvalidReorderSet
	case errors.Is(err, ErrUnsupportedQuestionType):
		return CodeUnsupportedQuestionType
	case errors.Is(err, ErrTemplateImmutable):
		return CodeTemplateImmutable
	case errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrRevisionConflict),
		errors.Is(err, ErrTemplateExists):
		return CodeConflict
	case errors.Is(err, ErrIncompatibleRule),
		errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrDanglingReference),
		errors.Is(err, ErrUnknownCustomRule),
		errors.Is(err, ErrInvalidQuestion),
		errors.Is(err, ErrInvalidTemplate),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrValidationFailed):
		return CodeValidation
	}
	return CodeInternal
}

// ErrValidationFailed marks response validation failures.
var ErrValidationFailed = errors.New("validation failed")

// ErrorBody is the error half of the result envelope.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope is the uniform result shape returned across the boundary.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail wraps an error in a failed envelope. Internal errors do not leak their message.
func Fail(err error) Envelope {
	code := CodeOf(err)
	body := &ErrorBody{Code: code, Message: err.Error()}
	if code == CodeInternal {
		body.Message = "internal error"
	}

	var detailed interface{ Details() map[string]any }
	if errors.As(err, &detailed) {
		body.Details = detailed.Details()
	}
	return Envelope{Success: false, Error: body}
}
