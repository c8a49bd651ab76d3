package application

import (
	"context"

	"streameconomy/application/dto"
	"streameconomy/domain"

	log "github.com/sirupsen/logrus"
)

// collaboratorHandler turns chat and streaming events into progression updates
type collaboratorHandler struct {
	processor *TransactionProcessor
}

// NewCollaboratorHandler creates a handler backed by the processor
func NewCollaboratorHandler(processor *TransactionProcessor) CollaboratorHandler {
	return &collaboratorHandler{processor: processor}
}

// HandleChatMessage accrues engagement points for one chat message
func (h *collaboratorHandler) HandleChatMessage(ctx context.Context, message dto.ChatMessageSentDTO) error {
	result, err := h.processor.RecordChatMessage(ctx, message.ViewerID, message.StreamerID, message.Text)
	if err != nil {
		return redeliverable(err, log.Fields{
			"viewerID":   message.ViewerID,
			"streamerID": message.StreamerID,
		})
	}

	if result.TierChange != nil && result.TierChange.Promoted {
		log.WithFields(log.Fields{
			"viewerID":   message.ViewerID,
			"streamerID": message.StreamerID,
			"tier":       result.TierChange.NewTier.TierName(),
		}).Info("Chat activity promoted viewer")
	}
	return nil
}

// HandleSessionEnded adds a finished broadcast to the streamer's airtime
func (h *collaboratorHandler) HandleSessionEnded(ctx context.Context, session dto.SessionEndedDTO) error {
	result, err := h.processor.RecordSession(ctx, session.StreamerID, session.ElapsedMinutes)
	if err != nil {
		return redeliverable(err, log.Fields{
			"streamerID":     session.StreamerID,
			"elapsedMinutes": session.ElapsedMinutes,
		})
	}

	log.WithFields(log.Fields{
		"streamerID":     session.StreamerID,
		"airtimeMinutes": result.Profile.AirtimeMinutes,
	}).Debug("Recorded streaming session")
	return nil
}

// redeliverable returns err only when another delivery could succeed.
// Rejected events are logged and acknowledged.
func redeliverable(err error, fields log.Fields) error {
	switch domain.KindOf(err) {
	case domain.KindTransientStore, domain.KindInternal:
		return err
	}

	log.WithError(err).WithFields(fields).Warn("Dropping collaborator event")
	return nil
}
