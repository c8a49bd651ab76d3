package application

import (
	"context"

	"streameconomy/application/dto"
)

// CollaboratorHandler consumes events produced by the chat and streaming services.
// It is implemented by the application layer and called by the infrastructure layer.
type CollaboratorHandler interface {
	// HandleChatMessage accrues engagement points for a chat message
	HandleChatMessage(ctx context.Context, message dto.ChatMessageSentDTO) error

	// HandleSessionEnded adds a finished broadcast to the streamer's airtime
	HandleSessionEnded(ctx context.Context, session dto.SessionEndedDTO) error
}
