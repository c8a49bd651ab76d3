package services

import (
	"context"

	"streameconomy/domain"
	"streameconomy/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type airtimeService struct {
	userRepo           interfaces.UserRepository
	progressionService interfaces.ProgressionService
}

// NewAirtimeService creates a new airtime service
func NewAirtimeService(userRepo interfaces.UserRepository, progressionService interfaces.ProgressionService) interfaces.AirtimeService {
	return &airtimeService{
		userRepo:           userRepo,
		progressionService: progressionService,
	}
}

// RecordSession adds the minutes of a finished broadcast to the streamer's airtime
func (s *airtimeService) RecordSession(ctx context.Context, streamerID int64, elapsedMinutes int64) (*interfaces.AirtimeResult, error) {
	if elapsedMinutes < 0 {
		return nil, domain.NewValidationError("elapsed minutes cannot be negative")
	}
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}

	result, err := s.progressionService.AddStreamerMinutes(ctx, streamerID, elapsedMinutes)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"streamerID":     streamerID,
		"elapsedMinutes": elapsedMinutes,
		"airtimeMinutes": result.Profile.AirtimeMinutes,
	}).Info("Recorded streaming session")

	return result, nil
}
