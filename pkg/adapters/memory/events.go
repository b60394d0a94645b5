package memory

import (
	"context"
	"sync"

	"github.com/aretw0/formwork/pkg/domain"
)

// Recorder implements ports.EventPublisher by keeping events in memory.
// Useful in tests and for single-process deployments that poll events.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records the event.
func (r *Recorder) Publish(ctx context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
