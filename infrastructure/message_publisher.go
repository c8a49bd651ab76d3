package infrastructure

import (
	"context"
)

// MessagePublisher sends one serialized event to the bus. Publishes that
// repeat msgID inside the stream's duplicate window are stored once.
type MessagePublisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}
