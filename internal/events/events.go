// Package events publishes domain events to the message broker.
package events

import (
	"context"
	"log/slog"
	"time"

	"vidtube/internal/middleware"
	"vidtube/internal/observability"
)

// Event types emitted by the services. Each type is also the queue name.
const (
	UserRegistered = "user.registered"
	VideoPublished = "video.published"
	VideoDeleted   = "video.deleted"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

// Emit publishes an event without letting a broker failure affect the caller.
func Emit(ctx context.Context, p Publisher, eventType string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, payload); err != nil {
		observability.EventsPublished.WithLabelValues(eventType, "error").Inc()
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("event", eventType), slog.String("error", err.Error()))
		return
	}
	observability.EventsPublished.WithLabelValues(eventType, "success").Inc()
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                              { return nil }

// UserRegisteredPayload is sent after a successful registration.
type UserRegisteredPayload struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// VideoPayload identifies a video for published and deleted events.
type VideoPayload struct {
	VideoID uint   `json:"videoId"`
	OwnerID uint   `json:"ownerId"`
	Title   string `json:"title,omitempty"`
}
