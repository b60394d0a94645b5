package dsl

import (
	"fmt"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
)

// Builder manages the template construction.
type Builder struct {
	tpl        domain.FormTemplate
	order      []string
	questions  map[string]*QuestionBuilder
	predicates *registry.Predicates
}

// New creates a new template builder.
func New(name string) *Builder {
	return &Builder{
		tpl:       domain.FormTemplate{Name: name},
		questions: make(map[string]*QuestionBuilder),
	}
}

// Type sets the form type id.
func (b *Builder) Type(typeID string) *Builder {
	b.tpl.TypeID = typeID
	return b
}

// Tenant scopes the template to a tenant.
func (b *Builder) Tenant(tenantID string) *Builder {
	b.tpl.TenantID = tenantID
	return b
}

// Describe sets the description.
func (b *Builder) Describe(description string) *Builder {
	b.tpl.Description = description
	return b
}

// Rule attaches an opaque business rule.
func (b *Builder) Rule(rule domain.BusinessRule) *Builder {
	b.tpl.BusinessRules = append(b.tpl.BusinessRules, rule)
	return b
}

// Predicates makes custom validation rules resolvable at Build time.
func (b *Builder) Predicates(p *registry.Predicates) *Builder {
	b.predicates = p
	return b
}

// Add creates a new question. Questions keep the order in which they were first added.
// If the question already exists, it returns the existing builder.
func (b *Builder) Add(id string) *QuestionBuilder {
	if qb, ok := b.questions[id]; ok {
		return qb
	}
	qb := &QuestionBuilder{
		question: domain.Question{ID: id},
	}
	b.questions[id] = qb
	b.order = append(b.order, id)
	return qb
}

// Build assembles and checks the template.
func (b *Builder) Build() (*domain.FormTemplate, error) {
	t := b.tpl.Clone()
	t.Questions = make([]domain.Question, 0, len(b.order))
	for _, id := range b.order {
		t.Questions = append(t.Questions, b.questions[id].Build())
	}
	t.Renumber()

	if err := questions.Check(t.Questions, b.predicates); err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", t.Name, err)
	}
	return t, nil
}

// MustBuild is like Build but panics on error. Meant for fixtures.
func (b *Builder) MustBuild() *domain.FormTemplate {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
