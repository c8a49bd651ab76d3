package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"streameconomy/domain/events"
	"streameconomy/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LocalEventHandler handles an event inside the publishing process
type LocalEventHandler func(context.Context, events.Event) error

// NATSEventPublisher runs local handlers and then publishes the event to NATS.
// A nil bus keeps delivery in-process.
type NATSEventPublisher struct {
	bus           MessagePublisher
	subjectMapper *EventSubjectMapper
	mu            sync.RWMutex
	localHandlers map[events.EventType][]LocalEventHandler
	retryDelay    time.Duration
}

const busPublishAttempts = 2

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(bus MessagePublisher, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		bus:           bus,
		subjectMapper: subjectMapper,
		localHandlers: make(map[events.EventType][]LocalEventHandler),
		retryDelay:    200 * time.Millisecond,
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	eventType := event.Type()

	p.mu.RLock()
	handlers := p.localHandlers[eventType]
	p.mu.RUnlock()

	for _, handler := range handlers {
		log.WithField("eventType", eventType).Debug("Invoking local handler for event")

		if err := handler(ctx, event); err != nil {
			// Local handler errors must not stop other handlers or the bus publish
			log.WithFields(log.Fields{
				"eventType": eventType,
				"error":     err,
			}).Error("Local event handler failed")
		}
	}

	if p.bus == nil {
		return nil
	}

	subject := p.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(eventType),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.publishWithRetry(ctx, subject, envelope.EventID, envelopeData); err != nil {
		// No stream bound to the subject; nothing durable to deliver to
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	observability.GetMetrics().RecordNATSMessagePublished(string(eventType))

	log.WithFields(log.Fields{
		"eventType": eventType,
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// publishWithRetry repeats a failed publish under the same message id so the
// stream keeps a single copy
func (p *NATSEventPublisher) publishWithRetry(ctx context.Context, subject, msgID string, data []byte) error {
	var err error
	for attempt := 1; attempt <= busPublishAttempts; attempt++ {
		if err = p.bus.Publish(ctx, subject, msgID, data); err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "no response from stream") || attempt == busPublishAttempts {
			break
		}

		log.WithError(err).WithFields(log.Fields{
			"subject": subject,
			"attempt": attempt,
		}).Warn("Retrying event publish")
		time.Sleep(p.retryDelay)
	}
	return err
}

// RegisterLocalHandler registers a handler invoked in-process for every published event of eventType
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	p.mu.Lock()
	p.localHandlers[eventType] = append(p.localHandlers[eventType], handler)
	count := len(p.localHandlers[eventType])
	p.mu.Unlock()

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": count,
	}).Info("Registered local event handler")
}

// EnsureEconomyEventStream ensures the economy_events stream exists with the published subjects
func EnsureEconomyEventStream(client *NATSClient, mapper *EventSubjectMapper) error {
	return client.EnsureStream(EconomyEventStream, "Stream economy domain events", mapper.GetAllSubjects())
}
