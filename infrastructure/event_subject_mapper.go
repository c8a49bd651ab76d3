package infrastructure

import (
	"fmt"

	"streameconomy/domain/events"
)

// Stream and subject names on the bus
const (
	EconomyEventStream = "economy_events"

	PlatformEventStream = "platform_events"
	SubjectChatMessage  = "chat.message.sent"
	SubjectSessionEnded = "streams.session.ended"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange:       "economy.balance.changed",
	events.EventTypeUserRegistered:      "economy.users.registered",
	events.EventTypeGiftSent:            "economy.gifts.sent",
	events.EventTypeCoinsRecharged:      "economy.recharges.completed",
	events.EventTypeRoulettePlayed:      "economy.roulette.played",
	events.EventTypeViewerLevelUp:       "economy.progression.viewer_level_up",
	events.EventTypeStreamerLevelUp:     "economy.progression.streamer_level_up",
	events.EventTypeNotificationCreated: "economy.notifications.created",
	events.EventTypeTierCatalogChanged:  "economy.tiers.catalog_changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct {
	eventTypes map[string]events.EventType
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	eventTypes := make(map[string]events.EventType, len(eventSubjects))
	for eventType, subject := range eventSubjects {
		eventTypes[subject] = eventType
	}
	return &EventSubjectMapper{eventTypes: eventTypes}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("economy.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	if eventType, ok := m.eventTypes[subject]; ok {
		return eventType
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"economy.>"}
}
