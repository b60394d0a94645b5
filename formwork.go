package formwork

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/lineage"
	"github.com/aretw0/formwork/pkg/logic"
	"github.com/aretw0/formwork/pkg/observability"
	"github.com/aretw0/formwork/pkg/persistence/middleware"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/prefill"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/versioning"
)

// Engine is the high-level entry point for the Formwork library.
// It ties the question manager, the conditional logic evaluator, the schema compiler
// and the version manager to a template store.
type Engine struct {
	store      ports.TemplateStore
	versions   *versioning.Manager
	predicates *registry.Predicates
	metrics    *observability.Metrics
	publisher  ports.EventPublisher
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	logger     *slog.Logger
	clock      func() time.Time
	newID      func() string

	categories []domain.FormCategory
	types      []domain.FormType
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the template store (default: in-memory).
func WithStore(store ports.TemplateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithPublisher sets the sink for template lifecycle events.
func WithPublisher(p ports.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithLocker coordinates lineage mutations across replicas.
// A zero ttl keeps lineage.DefaultLockTTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithPredicates registers the custom validation rules available to templates.
func WithPredicates(p *registry.Predicates) Option {
	return func(e *Engine) {
		e.predicates = p
	}
}

// WithMetrics records engine and store metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithIDGenerator overrides how template and lineage ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New initializes a new Formwork Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.predicates == nil {
		eng.predicates = registry.NewPredicates()
	}
	if eng.metrics != nil {
		eng.store = middleware.Chain(eng.store, middleware.Instrument(eng.metrics, eng.logger))
	}

	lockOpts := []lineage.Option{lineage.WithLogger(eng.logger)}
	if eng.locker != nil {
		lockOpts = append(lockOpts, lineage.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		lockOpts = append(lockOpts, lineage.WithTTL(eng.lockTTL))
	}

	versionOpts := []versioning.Option{
		versioning.WithLineageManager(lineage.NewManager(lockOpts...)),
		versioning.WithPredicates(eng.predicates),
		versioning.WithLogger(eng.logger),
	}
	if eng.publisher != nil {
		versionOpts = append(versionOpts, versioning.WithPublisher(eng.publisher))
	}
	if eng.clock != nil {
		versionOpts = append(versionOpts, versioning.WithClock(eng.clock))
	}
	if eng.newID != nil {
		versionOpts = append(versionOpts, versioning.WithIDGenerator(eng.newID))
	}
	eng.versions = versioning.NewManager(eng.store, versionOpts...)

	return eng
}

// Predicates exposes the custom rule registry so hosts can register rules after New.
func (e *Engine) Predicates() *registry.Predicates {
	return e.predicates
}

func (e *Engine) mutated(op string, err error) {
	e.metrics.ObserveMutation(op, err)
	if err != nil && domain.CodeOf(err) == domain.CodeInternal {
		e.logger.Error("Template mutation failed", "operation", op, "err", err)
	}
}

// CreateTemplate stores draft as version 1 of a new lineage.
func (e *Engine) CreateTemplate(ctx context.Context, draft *domain.FormTemplate) (*domain.FormTemplate, error) {
	if draft != nil {
		if err := e.checkType(draft.TypeID); err != nil {
			e.mutated("create_template", err)
			return nil, err
		}
	}
	t, err := e.versions.Create(ctx, draft)
	e.mutated("create_template", err)
	return t, err
}

// GetTemplate loads one template version.
func (e *Engine) GetTemplate(ctx context.Context, id string) (*domain.FormTemplate, error) {
	return e.store.Get(ctx, id)
}

// ListTemplates lists template versions matching the filter.
func (e *Engine) ListTemplates(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error) {
	return e.store.List(ctx, filter)
}

// AddQuestion appends a question. Published templates are forked first; the returned
// template is the version that received the question.
func (e *Engine) AddQuestion(ctx context.Context, templateID string, q domain.Question) (*domain.FormTemplate, error) {
	t, err := e.versions.Edit(ctx, templateID, "add question "+q.ID, func(t *domain.FormTemplate) (*domain.FormTemplate, error) {
		return questions.Add(t, q, e.predicates)
	})
	e.mutated("add_question", err)
	return t, err
}

// UpdateQuestion applies a partial update to a question.
func (e *Engine) UpdateQuestion(ctx context.Context, templateID, questionID string, patch questions.Patch) (*domain.FormTemplate, error) {
	t, err := e.versions.Edit(ctx, templateID, "update question "+questionID, func(t *domain.FormTemplate) (*domain.FormTemplate, error) {
		return questions.Update(t, questionID, patch, e.predicates)
	})
	e.mutated("update_question", err)
	return t, err
}

// DeleteQuestion removes a question and the conditional rules that referenced it.
// The removed rules are returned so callers can report them.
func (e *Engine) DeleteQuestion(ctx context.Context, templateID, questionID string) (*domain.FormTemplate, []domain.RuleRef, error) {
	var removed []domain.RuleRef
	t, err := e.versions.Edit(ctx, templateID, "delete question "+questionID, func(t *domain.FormTemplate) (*domain.FormTemplate, error) {
		out, refs, err := questions.Delete(t, questionID)
		removed = refs
		return out, err
	})
	e.mutated("delete_question", err)
	if err != nil {
		return nil, nil, err
	}
	return t, removed, nil
}

// ReorderQuestions sets the question order to ids, which must be a permutation of the
// current question ids.
func (e *Engine) ReorderQuestions(ctx context.Context, templateID string, ids []string) (*domain.FormTemplate, error) {
	t, err := e.versions.Edit(ctx, templateID, "reorder questions", func(t *domain.FormTemplate) (*domain.FormTemplate, error) {
		return questions.Reorder(t, ids)
	})
	e.mutated("reorder_questions", err)
	return t, err
}

// CreateVersion snapshots a template into the next version of its lineage.
func (e *Engine) CreateVersion(ctx context.Context, templateID, notes string) (*domain.FormTemplate, error) {
	t, err := e.versions.CreateVersion(ctx, templateID, notes)
	e.mutated("create_version", err)
	return t, err
}

// History lists the versions of a template by name, type and tenant.
func (e *Engine) History(ctx context.Context, name, typeID, tenantID string) ([]*domain.FormTemplate, error) {
	return e.versions.History(ctx, name, typeID, tenantID)
}

// LineageHistory lists every version of a lineage.
func (e *Engine) LineageHistory(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error) {
	return e.versions.LineageHistory(ctx, lineageID)
}

// Compare returns the structural difference between two versions.
func (e *Engine) Compare(ctx context.Context, fromID, toID string) (*domain.TemplateDiff, error) {
	return e.versions.CompareByID(ctx, fromID, toID)
}

// Activate makes a version the only active version of its lineage.
func (e *Engine) Activate(ctx context.Context, templateID string) (*domain.FormTemplate, error) {
	t, err := e.versions.Activate(ctx, templateID)
	e.mutated("activate", err)
	return t, err
}

// Deactivate turns a version off.
func (e *Engine) Deactivate(ctx context.Context, templateID string) (*domain.FormTemplate, error) {
	t, err := e.versions.Deactivate(ctx, templateID)
	e.mutated("deactivate", err)
	return t, err
}

// DeactivateLineage retires a template: every version is turned off, none is deleted.
func (e *Engine) DeactivateLineage(ctx context.Context, lineageID string) error {
	err := e.versions.DeactivateLineage(ctx, lineageID)
	e.mutated("deactivate_lineage", err)
	return err
}

// Evaluate computes the effective state of every question for a response set.
func (e *Engine) Evaluate(ctx context.Context, templateID string, responses map[string]any) (domain.States, error) {
	t, err := e.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	states, err := logic.Evaluate(t.Questions, responses)
	e.metrics.ObserveEvaluation(err)
	return states, err
}

// Validator compiles the static validation schema of a template (no conditional logic
// applied). Useful for exporting the schema to clients.
func (e *Engine) Validator(ctx context.Context, templateID string) (*schema.Validator, error) {
	t, err := e.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return schema.Compile(t.Questions, schema.WithPredicates(e.predicates))
}

// Submission is the outcome of checking a response set against a template version.
type Submission struct {
	TemplateID string         `json:"template_id"`
	Version    int            `json:"version"`
	States     domain.States  `json:"states"`
	Result     schema.Result  `json:"result"`
	Responses  map[string]any `json:"responses"`
}

// Validate evaluates conditional logic and validates responses against the resulting
// effective state. A failed validation is reported in the result, not as an error.
func (e *Engine) Validate(ctx context.Context, templateID string, responses map[string]any) (*Submission, error) {
	t, err := e.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	states, err := logic.Evaluate(t.Questions, responses)
	e.metrics.ObserveEvaluation(err)
	if err != nil {
		return nil, err
	}
	v, err := schema.Compile(t.Questions,
		schema.WithEffectiveState(states),
		schema.WithPredicates(e.predicates),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	result := v.Validate(responses)
	e.metrics.ObserveValidation(result.Valid)

	return &Submission{
		TemplateID: t.ID,
		Version:    t.Version,
		States:     states,
		Result:     result,
		Responses:  visibleAnswers(t.Questions, states, responses),
	}, nil
}

// Submit is Validate for the final submission: an invalid response set is an error
// (wrapping domain.ErrValidationFailed) and the submission is still returned so the
// caller can show the failures.
func (e *Engine) Submit(ctx context.Context, templateID string, responses map[string]any) (*Submission, error) {
	sub, err := e.Validate(ctx, templateID, responses)
	if err != nil {
		return nil, err
	}
	if err := sub.Result.Err(); err != nil {
		return sub, err
	}
	e.logger.InfoContext(ctx, "Form submitted", "template_id", sub.TemplateID, "version", sub.Version)
	return sub, nil
}

// visibleAnswers drops answers to hidden questions and unknown ids.
func visibleAnswers(qs []domain.Question, states domain.States, responses map[string]any) map[string]any {
	out := make(map[string]any, len(responses))
	for _, q := range qs {
		v, ok := responses[q.ID]
		if !ok || !states[q.ID].Visible() {
			continue
		}
		out[q.ID] = v
	}
	return out
}

// Prefill builds the initial answers for a template from defaults and profile data.
func (e *Engine) Prefill(ctx context.Context, templateID string, profile any) (map[string]any, error) {
	t, err := e.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return prefill.Initial(t.Questions, profile), nil
}
