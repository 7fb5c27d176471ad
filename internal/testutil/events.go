package testutil

import (
	"context"
	"sync"
)

// PublishedEvent is one event captured by RecordingPublisher.
type PublishedEvent struct {
	Type    string
	Payload any
}

// RecordingPublisher is an events.Publisher that keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

// Publish records the event and returns Err.
func (p *RecordingPublisher) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{Type: eventType, Payload: payload})
	return p.Err
}

// Close does nothing.
func (p *RecordingPublisher) Close() error { return nil }

// Types returns the recorded event types in publication order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Type)
	}
	return out
}
