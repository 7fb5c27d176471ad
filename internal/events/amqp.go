package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultDialTimeout = 2 * time.Second
	heartbeat          = 10 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher waits out its reconnect backoff.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// AMQPPublisher publishes persistent JSON messages to durable queues named after the event type.
// The connection is opened lazily and reopened after a failure. A failed dial starts an
// exponential backoff during which Publish fails immediately instead of dialing again.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
	retry    *backoff.ExponentialBackOff
	retryAt  time.Time
	now      func() time.Time
}

// NewAMQPPublisher returns a publisher for the broker at url. No connection is made until the first Publish.
func NewAMQPPublisher(url string) *AMQPPublisher {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = time.Second
	retry.MaxInterval = 30 * time.Second
	return &AMQPPublisher{
		url:         url,
		dialTimeout: defaultDialTimeout,
		declared:    make(map[string]bool),
		retry:       retry,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Publish sends one event. Publishing is serialized because an amqp.Channel is not safe for concurrent use.
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(Envelope{Type: eventType, OccurredAt: p.now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if !p.declared[eventType] {
		if _, err := ch.QueueDeclare(eventType, true, false, false, false, nil); err != nil {
			p.reset()
			return fmt.Errorf("declare queue %s: %w", eventType, err)
		}
		p.declared[eventType] = true
	}

	err = ch.PublishWithContext(ctx, "", eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if now := p.now(); now.Before(p.retryAt) {
		return nil, fmt.Errorf("%w: next attempt in %s", ErrBrokerUnavailable, p.retryAt.Sub(now).Round(time.Millisecond))
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(p.dialTimeout),
		Heartbeat: heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		p.retryAt = p.now().Add(p.retry.NextBackOff())
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.retryAt = p.now().Add(p.retry.NextBackOff())
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p.retry.Reset()
	p.retryAt = time.Time{}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// reset drops the current connection so the next Publish redials. Caller holds mu.
func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
	p.declared = make(map[string]bool)
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// NewPublisher returns an AMQP publisher when url is set and a NoopPublisher otherwise.
func NewPublisher(url string) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	return NewAMQPPublisher(url)
}
