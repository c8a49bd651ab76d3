package services

import (
	"context"
	"fmt"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
)

// requireActor loads the user behind a request identity
func requireActor(ctx context.Context, userRepo interfaces.UserRepository, userID int64) (*entities.User, error) {
	if userID <= 0 {
		return nil, domain.NewUnauthorizedError("sign in to continue")
	}
	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewUnauthorizedError("unknown user %d", userID)
	}
	if !user.IsActive() {
		return nil, domain.NewForbiddenError("account is suspended")
	}
	return user, nil
}

// requireStreamerActor loads the request identity and checks it owns a channel
func requireStreamerActor(ctx context.Context, userRepo interfaces.UserRepository, userID int64) (*entities.User, error) {
	user, err := requireActor(ctx, userRepo, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsStreamer() {
		return nil, domain.NewForbiddenError("only streamers can do that")
	}
	return user, nil
}

// requireStreamer loads the streamer a request targets
func requireStreamer(ctx context.Context, userRepo interfaces.UserRepository, streamerID int64) (*entities.User, error) {
	streamer, err := userRepo.GetByID(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streamer: %w", err)
	}
	if streamer == nil || !streamer.IsStreamer() {
		return nil, domain.NewNotFoundError("streamer %d not found", streamerID)
	}
	return streamer, nil
}
