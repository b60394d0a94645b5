package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/logic"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/schema"
)

// Runner asks the visible questions of a template one at a time.
type Runner struct {
	// Handler is the strategy for IO.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Predicates resolves custom validation rules.
	Predicates *registry.Predicates
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithPredicates sets the custom rule registry.
func WithPredicates(p *registry.Predicates) Option {
	return func(r *Runner) {
		r.Predicates = p
	}
}

// NewRunner creates a Runner. Without options it talks text over Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.Predicates == nil {
		r.Predicates = registry.NewPredicates()
	}
	return r
}

// Fill asks every question that is visible and not yet answered, in display order,
// and returns the collected answers. Questions already present in responses are not
// asked. Answers to questions that end up hidden are dropped.
//
// On a read error (io.EOF included) the answers collected so far are returned with
// the error.
func (r *Runner) Fill(ctx context.Context, t *domain.FormTemplate, responses map[string]any) (map[string]any, error) {
	answers := maps.Clone(responses)
	if answers == nil {
		answers = make(map[string]any)
	}
	done := make(map[string]bool, len(t.Questions))
	for id := range answers {
		done[id] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return answers, err
		}
		states, err := logic.Evaluate(t.Questions, answers)
		if err != nil {
			return answers, err
		}

		q, ok := next(t.Questions, states, done)
		if !ok {
			for _, q := range t.Questions {
				if !states[q.ID].Visible() {
					delete(answers, q.ID)
				}
			}
			return answers, nil
		}
		done[q.ID] = true

		prompt := Prompt{Question: q, State: states[q.ID]}
		if q.Type == domain.QuestionSectionHeader {
			if err := r.Handler.Output(ctx, prompt); err != nil {
				return answers, err
			}
			continue
		}
		if err := r.ask(ctx, prompt, answers); err != nil {
			return answers, err
		}
	}
}

func (r *Runner) ask(ctx context.Context, prompt Prompt, answers map[string]any) error {
	q := prompt.Question
	v, err := schema.Compile([]domain.Question{q},
		schema.WithEffectiveState(domain.States{q.ID: prompt.State}),
		schema.WithPredicates(r.Predicates),
	)
	if err != nil {
		return fmt.Errorf("question %q: %w", q.ID, err)
	}

	for {
		if err := r.Handler.Output(ctx, prompt); err != nil {
			return err
		}
		raw, err := r.Handler.Input(ctx)
		if err != nil {
			return err
		}

		if s, ok := raw.(string); ok {
			clean, err := SanitizeInput(s)
			if err != nil {
				prompt.Problem = err.Error()
				continue
			}
			raw = clean
			if strings.TrimSpace(clean) == "" {
				raw = nil
			}
		}

		candidate := maps.Clone(answers)
		if raw != nil {
			candidate[q.ID] = Coerce(q, raw)
		}
		res := v.Validate(candidate)
		if !res.Valid {
			prompt.Problem = res.Errors[0].Message
			r.Logger.Debug("answer rejected", "question_id", q.ID, "rule", res.Errors[0].Rule)
			continue
		}

		if raw != nil {
			answers[q.ID] = candidate[q.ID]
		}
		return nil
	}
}

// next returns the first visible question that has not been asked.
func next(questions []domain.Question, states domain.States, done map[string]bool) (domain.Question, bool) {
	for _, q := range questions {
		if done[q.ID] || !states[q.ID].Visible() {
			continue
		}
		return q, true
	}
	return domain.Question{}, false
}

// Coerce converts a typed answer to the value shape of q. Numbers are parsed, yes/no
// is lowercased, and choices may be given by option id, label, value or 1-based
// position. Non-string values are returned unchanged.
func Coerce(q domain.Question, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)

	switch q.Type {
	case domain.QuestionNumeric:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	case domain.QuestionYesNo:
		return strings.ToLower(s)
	case domain.QuestionSingleSelect:
		return choose(q.Options, s)
	case domain.QuestionMultiSelect:
		var out []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, choose(q.Options, part))
			}
		}
		return out
	}
	return s
}

func choose(options []domain.Option, s string) any {
	for _, o := range options {
		if strings.EqualFold(o.ID, s) || strings.EqualFold(o.Label, s) || strings.EqualFold(fmt.Sprint(o.Value), s) {
			return o.Value
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 1 && i <= len(options) {
		return options[i-1].Value
	}
	return s
}
