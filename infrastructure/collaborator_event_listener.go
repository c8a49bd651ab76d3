package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"streameconomy/application"
	"streameconomy/application/dto"
	"streameconomy/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// chatMessageSent is the wire form of chat.message.sent
type chatMessageSent struct {
	ViewerID   int64     `json:"viewerId"`
	StreamerID int64     `json:"streamerId"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`
}

// sessionEnded is the wire form of streams.session.ended
type sessionEnded struct {
	StreamerID     int64     `json:"streamerId"`
	ElapsedMinutes int64     `json:"elapsedMinutes"`
	EndedAt        time.Time `json:"endedAt"`
}

// CollaboratorEventListener decodes chat and streaming service events into application DTOs
type CollaboratorEventListener struct {
	handler application.CollaboratorHandler
}

// NewCollaboratorEventListener creates a new collaborator event listener
func NewCollaboratorEventListener(handler application.CollaboratorHandler) *CollaboratorEventListener {
	return &CollaboratorEventListener{
		handler: handler,
	}
}

// HandleChatMessageSent processes chat.message.sent
func (l *CollaboratorEventListener) HandleChatMessageSent(ctx context.Context, data []byte) error {
	observability.GetMetrics().RecordNATSMessageReceived(SubjectChatMessage)

	var event chatMessageSent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal chat message: %w", err)
	}

	log.WithFields(log.Fields{
		"viewerId":   event.ViewerID,
		"streamerId": event.StreamerID,
	}).Debug("Processing chat message")

	return l.handler.HandleChatMessage(ctx, dto.ChatMessageSentDTO{
		ViewerID:   event.ViewerID,
		StreamerID: event.StreamerID,
		Text:       event.Text,
		SentAt:     event.SentAt,
	})
}

// HandleSessionEnded processes streams.session.ended
func (l *CollaboratorEventListener) HandleSessionEnded(ctx context.Context, data []byte) error {
	observability.GetMetrics().RecordNATSMessageReceived(SubjectSessionEnded)

	var event sessionEnded
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal session ended: %w", err)
	}

	log.WithFields(log.Fields{
		"streamerId":     event.StreamerID,
		"elapsedMinutes": event.ElapsedMinutes,
	}).Debug("Processing session end")

	return l.handler.HandleSessionEnded(ctx, dto.SessionEndedDTO{
		StreamerID:     event.StreamerID,
		ElapsedMinutes: event.ElapsedMinutes,
		EndedAt:        event.EndedAt,
	})
}
