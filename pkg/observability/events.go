package observability

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// LogPublisher implements ports.EventPublisher by logging each event.
// It is the default sink when no workflow subsystem is attached.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher writing to logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.logger.InfoContext(ctx, "template event",
		"type", event.Type,
		"template_id", event.TemplateID,
		"lineage_id", event.LineageID,
		"version", event.Version,
		"tenant_id", event.TenantID,
		"detail", event.Detail,
	)
	return nil
}

// Fanout publishes each event to every publisher in order. All publishers are
// tried; their errors are joined.
type Fanout []ports.EventPublisher

// Publish implements ports.EventPublisher.
func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
