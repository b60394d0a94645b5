package ports

import (
	"context"

	"github.com/aretw0/formwork/pkg/domain"
)

// EventPublisher delivers lifecycle events to the notification/workflow subsystem.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
