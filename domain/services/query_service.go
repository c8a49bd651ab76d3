package services

import (
	"context"
	"fmt"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type queryService struct {
	userRepo           interfaces.UserRepository
	balanceRepo        interfaces.BalanceRepository
	progressRepo       interfaces.ProgressRepository
	viewerTierRepo     interfaces.ViewerTierRepository
	profileRepo        interfaces.StreamerProfileRepository
	streamerTierRepo   interfaces.StreamerTierRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	wagerRepo          interfaces.WagerRecordRepository
}

// NewQueryService creates a new read-only query service
func NewQueryService(
	userRepo interfaces.UserRepository,
	balanceRepo interfaces.BalanceRepository,
	progressRepo interfaces.ProgressRepository,
	viewerTierRepo interfaces.ViewerTierRepository,
	profileRepo interfaces.StreamerProfileRepository,
	streamerTierRepo interfaces.StreamerTierRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	wagerRepo interfaces.WagerRecordRepository,
) interfaces.QueryService {
	return &queryService{
		userRepo:           userRepo,
		balanceRepo:        balanceRepo,
		progressRepo:       progressRepo,
		viewerTierRepo:     viewerTierRepo,
		profileRepo:        profileRepo,
		streamerTierRepo:   streamerTierRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		wagerRepo:          wagerRepo,
	}
}

// GetBalance reports a zero balance for users who never held coins
func (s *queryService) GetBalance(ctx context.Context, userID int64) (*entities.ViewerBalance, error) {
	if _, err := requireActor(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	balance, err := s.balanceRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return &entities.ViewerBalance{UserID: userID}, nil
	}
	return balance, nil
}

func (s *queryService) GetProgress(ctx context.Context, viewerID, streamerID int64) (*interfaces.ProgressView, error) {
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, viewerID, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	if progress == nil {
		progress = &entities.ViewerProgress{ViewerID: viewerID, StreamerID: streamerID}
	}

	view := &interfaces.ProgressView{Progress: progress}
	if progress.TierID != nil {
		tier, err := s.viewerTierRepo.GetByID(ctx, *progress.TierID)
		if err != nil {
			return nil, fmt.Errorf("failed to get viewer tier: %w", err)
		}
		view.Tier = tier
	}
	return view, nil
}

func (s *queryService) GetStreamerProfile(ctx context.Context, streamerID int64) (*interfaces.StreamerView, error) {
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Get(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get streamer profile: %w", err)
	}
	if profile == nil {
		return nil, domain.NewNotFoundError("streamer %d has no profile yet", streamerID)
	}

	view := &interfaces.StreamerView{Profile: profile}
	if profile.TierID != nil {
		tiers, err := s.streamerTierRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list streamer tiers: %w", err)
		}
		if tier, found := findTier(tiers, profile.TierID); found {
			view.Tier = &tier
		}
	}
	return view, nil
}

func (s *queryService) GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	if _, err := requireActor(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	history, err := s.balanceHistoryRepo.GetByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func (s *queryService) GetWagerHistory(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error) {
	if _, err := requireActor(ctx, s.userRepo, viewerID); err != nil {
		return nil, err
	}
	records, err := s.wagerRepo.ListByViewer(ctx, viewerID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get wager history: %w", err)
	}
	return records, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
