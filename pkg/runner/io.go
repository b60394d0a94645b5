package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
)

// Prompt is one question presented to the user.
type Prompt struct {
	Question domain.Question       `json:"question"`
	State    domain.EffectiveState `json:"state"`
	// Problem explains why the previous answer was rejected.
	Problem string `json:"problem,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a prompt. Section headers are presented without a following Input.
	Output(ctx context.Context, p Prompt) error

	// Input reads one answer. Text handlers return strings; structured handlers may
	// return any JSON value. An empty answer skips an optional question.
	Input(ctx context.Context) (any, error)
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
}

func (h *TextHandler) Output(ctx context.Context, p Prompt) error {
	output := promptMarkdown(p)
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

func (h *TextHandler) Input(ctx context.Context) (any, error) {
	fmt.Fprint(h.Writer, "> ")

	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptMarkdown(p Prompt) string {
	q := p.Question
	var sb strings.Builder
	if q.Type == domain.QuestionSectionHeader {
		fmt.Fprintf(&sb, "## %s\n", q.Text)
		if q.HelpText != "" {
			fmt.Fprintf(&sb, "\n%s\n", q.HelpText)
		}
		return sb.String()
	}

	text := q.Text
	if text == "" {
		text = q.ID
	}
	fmt.Fprintf(&sb, "**%s**", text)
	if p.State == domain.StateVisibleRequired {
		sb.WriteString(" *")
	} else {
		sb.WriteString(" _(optional, press enter to skip)_")
	}
	sb.WriteString("\n")
	if q.HelpText != "" {
		fmt.Fprintf(&sb, "\n%s\n", q.HelpText)
	}
	switch q.Type {
	case domain.QuestionYesNo:
		sb.WriteString("\nyes / no\n")
	case domain.QuestionSingleSelect, domain.QuestionMultiSelect:
		sb.WriteString("\n")
		for i, o := range q.Options {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, optionLabel(o))
		}
		if q.Type == domain.QuestionMultiSelect {
			sb.WriteString("\nSeparate several choices with commas.\n")
		}
	case domain.QuestionDate:
		sb.WriteString("\nYYYY-MM-DD\n")
	case domain.QuestionDateTime:
		sb.WriteString("\nRFC 3339, e.g. 2024-05-01T09:30:00Z\n")
	}
	if p.Problem != "" {
		fmt.Fprintf(&sb, "\n> ✗ %s\n", p.Problem)
	}
	return sb.String()
}

func optionLabel(o domain.Option) string {
	if o.Label != "" {
		return o.Label
	}
	if o.ID != "" {
		return o.ID
	}
	return fmt.Sprint(o.Value)
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each prompt is written as one JSON object; each answer is read as one JSON value.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, p Prompt) error {
	return h.Encoder.Encode(p)
}

func (h *JSONHandler) Input(ctx context.Context) (any, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var val any
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}

	// Fallback: return raw text (e.g. if they just sent plain text)
	return text, nil
}
