package interfaces

import (
	"context"

	"streameconomy/domain/events"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding
// transaction commits
type TransactionalEventPublisher interface {
	EventPublisher
	// Flush publishes every buffered event
	Flush(ctx context.Context) error
	// Discard drops every buffered event
	Discard()
}

// Subscription is a joined set of fanout channels
type Subscription interface {
	// Messages delivers payloads published to any joined channel
	Messages() <-chan FanoutMessage
	// Close leaves every joined channel
	Close() error
}

// FanoutMessage is one payload received on a channel
type FanoutMessage struct {
	Channel string
	Payload []byte
}

// Fanout is the real-time publish/subscribe capability. Delivery is best effort.
type Fanout interface {
	JoinChannel(ctx context.Context, channels ...string) (Subscription, error)
	Publish(ctx context.Context, channel string, payload []byte) error
}
