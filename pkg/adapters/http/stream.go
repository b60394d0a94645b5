package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/formwork/pkg/domain"
)

// StreamManager fans template events out to SSE subscribers.
// It implements ports.EventPublisher so it can be attached to the engine.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- domain.Event]string // channel -> lineage filter ("" = all)
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[chan<- domain.Event]string),
		logger:      logger,
	}
}

// Subscribe registers a listener for the lineage's events, or all events when
// lineageID is empty. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(lineageID string) (<-chan domain.Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.Event, 16)
	sm.subscribers[ch] = lineageID

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Publish broadcasts the event. Slow subscribers lose events instead of blocking
// the engine.
func (sm *StreamManager) Publish(ctx context.Context, event domain.Event) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch, lineage := range sm.subscribers {
		if lineage != "" && lineage != event.LineageID {
			continue
		}
		select {
		case ch <- event:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping event", "type", event.Type, "lineage_id", event.LineageID)
		}
	}
	return nil
}

// serveEvents handles GET /events as a server-sent event stream.
func (sm *StreamManager) serveEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := sm.Subscribe(r.URL.Query().Get("lineage_id"))
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
