package redis

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/formwork/pkg/domain"
)

// DefaultChannel is where template events are published.
const DefaultChannel = "formwork:events"

// Publisher implements ports.EventPublisher over Redis pub/sub.
type Publisher struct {
	client  *backend.Client
	channel string
}

// NewPublisher creates a publisher on channel (DefaultChannel when empty).
func NewPublisher(client *backend.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish sends the event as JSON.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
