package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// MockEventPublisher records events in memory. Used in tests and as a
// fallback when Kafka is not configured.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

// Publish records the event after filling envelope defaults
func (p *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Source == "" {
		event.Source = "lms-quiz-service"
	}
	if event.Version == "" {
		event.Version = "1.0"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = nowFunc()
	}

	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "mock event recorded",
		"event_id", event.ID,
		"event_type", event.Type)

	return nil
}

// Close is a no-op
func (p *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a snapshot of recorded events
func (p *MockEventPublisher) GetPublishedEvents() []*Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]*Event, len(p.events))
	copy(snapshot, p.events)
	return snapshot
}

// ClearEvents drops all recorded events
func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
