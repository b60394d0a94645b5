package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds one typed answer, in bytes.
	DefaultMaxInputSize = 16 * 1024
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "FORMWORK_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("answer exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("answer contains invalid UTF-8 sequences")
)

// SanitizeInput cleans a typed answer: it enforces the size limit, rejects invalid
// UTF-8 and strips control characters other than newline, tab and carriage return.
func SanitizeInput(input string) (string, error) {
	limit := maxInputSize()
	if len(input) > limit {
		// Rejected rather than truncated so a stored answer is always what was typed.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	if strings.IndexFunc(input, unsafeControl) < 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
