package infrastructure

import (
	"encoding/json"
	"time"
)

const sourceService = "streameconomy"

// EventEnvelope wraps every domain event published to the bus
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}
