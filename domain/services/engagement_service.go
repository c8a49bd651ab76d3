package services

import (
	"context"
	"strings"

	"streameconomy/domain"
	"streameconomy/domain/interfaces"
)

type engagementService struct {
	userRepo           interfaces.UserRepository
	progressionService interfaces.ProgressionService
	increment          int64
}

// NewEngagementService creates a new engagement service awarding increment
// points per qualifying chat message
func NewEngagementService(userRepo interfaces.UserRepository, progressionService interfaces.ProgressionService, increment int64) interfaces.EngagementService {
	return &engagementService{
		userRepo:           userRepo,
		progressionService: progressionService,
		increment:          increment,
	}
}

// RecordChatMessage awards points for a non-blank message sent in another
// user's channel
func (s *engagementService) RecordChatMessage(ctx context.Context, viewerID, streamerID int64, text string) (*interfaces.ProgressResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewValidationError("empty messages do not earn points")
	}
	if viewerID == streamerID {
		return nil, domain.NewValidationError("messages in your own channel do not earn points")
	}

	if _, err := requireActor(ctx, s.userRepo, viewerID); err != nil {
		return nil, err
	}
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}

	return s.progressionService.AddViewerPoints(ctx, viewerID, streamerID, s.increment)
}
