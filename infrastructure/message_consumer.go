package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"streameconomy/application"

	log "github.com/sirupsen/logrus"
)

// MessageHandler defines a function that handles raw message bytes
type MessageHandler func(ctx context.Context, data []byte) error

// MessageConsumer manages NATS subscriptions and routes messages to handlers
type MessageConsumer struct {
	natsClient *NATSClient
	handlers   map[string]MessageHandler
	mu         sync.RWMutex
}

// NewMessageConsumer creates a consumer routing collaborator events to handler
func NewMessageConsumer(natsClient *NATSClient, handler application.CollaboratorHandler) *MessageConsumer {
	listener := NewCollaboratorEventListener(handler)

	mc := &MessageConsumer{
		natsClient: natsClient,
		handlers:   make(map[string]MessageHandler),
	}

	mc.RegisterHandler(SubjectChatMessage, listener.HandleChatMessageSent)
	mc.RegisterHandler(SubjectSessionEnded, listener.HandleSessionEnded)

	return mc
}

// RegisterHandler registers a handler for a specific subject
func (mc *MessageConsumer) RegisterHandler(subject string, handler MessageHandler) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.handlers[subject] = handler
	log.WithField("subject", subject).Info("Registered message handler")
}

// Start subscribes to every registered subject and blocks until ctx is done
func (mc *MessageConsumer) Start(ctx context.Context) error {
	log.Info("Starting message consumer")

	mc.mu.RLock()
	subjects := make([]string, 0, len(mc.handlers))
	for subject := range mc.handlers {
		subjects = append(subjects, subject)
	}
	mc.mu.RUnlock()

	if err := mc.natsClient.EnsureStream(PlatformEventStream, "Chat and streaming service events", subjects); err != nil {
		return fmt.Errorf("failed to ensure platform event stream: %w", err)
	}

	for _, subject := range subjects {
		if err := mc.subscribe(ctx, subject); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}

	log.WithField("subjects", subjects).Info("Message consumer started and subscribed to subjects")

	<-ctx.Done()
	log.Info("Stopping message consumer")
	return nil
}

func (mc *MessageConsumer) subscribe(ctx context.Context, subject string) error {
	return mc.natsClient.Subscribe(subject, func(data []byte) error {
		mc.mu.RLock()
		handler, exists := mc.handlers[subject]
		mc.mu.RUnlock()

		if !exists {
			return fmt.Errorf("no handler registered for subject: %s", subject)
		}

		// Messages still in flight at shutdown are finished rather than cut off
		if err := handler(context.WithoutCancel(ctx), data); err != nil {
			log.WithFields(log.Fields{
				"subject": subject,
				"error":   err,
			}).Error("Failed to handle message")
			return err
		}

		return nil
	})
}
