package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/observability"
	"github.com/aretw0/formwork/pkg/ports"
)

type instrumented struct {
	next    ports.TemplateStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Instrument records metrics for every store call and logs unexpected failures.
// Expected outcomes (not found, conflicts) are not logged.
func Instrument(metrics *observability.Metrics, logger *slog.Logger) Middleware {
	return func(next ports.TemplateStore) ports.TemplateStore {
		return &instrumented{next: next, metrics: metrics, logger: logger}
	}
}

func (m *instrumented) observe(ctx context.Context, op string, start time.Time, err error) {
	m.metrics.ObserveStore(op, time.Since(start), err)
	if err == nil || m.logger == nil || expected(err) {
		return
	}
	m.logger.ErrorContext(ctx, "template store failure", "operation", op, "err", err)
}

func expected(err error) bool {
	return errors.Is(err, domain.ErrTemplateNotFound) ||
		errors.Is(err, domain.ErrTemplateExists) ||
		errors.Is(err, domain.ErrVersionConflict) ||
		errors.Is(err, domain.ErrRevisionConflict) ||
		errors.Is(err, context.Canceled)
}

func (m *instrumented) Create(ctx context.Context, t *domain.FormTemplate) (err error) {
	defer func(start time.Time) { m.observe(ctx, "create", start, err) }(time.Now())
	return m.next.Create(ctx, t)
}

func (m *instrumented) Get(ctx context.Context, id string) (t *domain.FormTemplate, err error) {
	defer func(start time.Time) { m.observe(ctx, "get", start, err) }(time.Now())
	return m.next.Get(ctx, id)
}

func (m *instrumented) Update(ctx context.Context, t *domain.FormTemplate) (err error) {
	defer func(start time.Time) { m.observe(ctx, "update", start, err) }(time.Now())
	return m.next.Update(ctx, t)
}

func (m *instrumented) ListLineage(ctx context.Context, lineageID string) (ts []*domain.FormTemplate, err error) {
	defer func(start time.Time) { m.observe(ctx, "list_lineage", start, err) }(time.Now())
	return m.next.ListLineage(ctx, lineageID)
}

func (m *instrumented) List(ctx context.Context, filter ports.Filter) (ts []*domain.FormTemplate, err error) {
	defer func(start time.Time) { m.observe(ctx, "list", start, err) }(time.Now())
	return m.next.List(ctx, filter)
}

func (m *instrumented) SetActive(ctx context.Context, lineageID, templateID string, at time.Time) (err error) {
	defer func(start time.Time) { m.observe(ctx, "set_active", start, err) }(time.Now())
	return m.next.SetActive(ctx, lineageID, templateID, at)
}
