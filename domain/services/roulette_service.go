package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"
	"streameconomy/domain/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SlotPicker returns a uniformly distributed index in [0, n)
type SlotPicker func(n int) int

type rouletteService struct {
	userRepo            interfaces.UserRepository
	progressRepo        interfaces.ProgressRepository
	balanceRepo         interfaces.BalanceRepository
	wagerRepo           interfaces.WagerRecordRepository
	balanceHistoryRepo  interfaces.BalanceHistoryRepository
	notificationService interfaces.NotificationService
	eventPublisher      interfaces.EventPublisher
	wheel               *entities.RouletteWheel
	stake               int64
	pick                SlotPicker
}

// NewRouletteService creates a new roulette service. A nil pick uses math/rand/v2.
func NewRouletteService(
	userRepo interfaces.UserRepository,
	progressRepo interfaces.ProgressRepository,
	balanceRepo interfaces.BalanceRepository,
	wagerRepo interfaces.WagerRecordRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	notificationService interfaces.NotificationService,
	eventPublisher interfaces.EventPublisher,
	wheel *entities.RouletteWheel,
	stake int64,
	pick SlotPicker,
) interfaces.RouletteService {
	if pick == nil {
		pick = rand.IntN
	}
	return &rouletteService{
		userRepo:            userRepo,
		progressRepo:        progressRepo,
		balanceRepo:         balanceRepo,
		wagerRepo:           wagerRepo,
		balanceHistoryRepo:  balanceHistoryRepo,
		notificationService: notificationService,
		eventPublisher:      eventPublisher,
		wheel:               wheel,
		stake:               stake,
		pick:                pick,
	}
}

func (s *rouletteService) Stake() int64 {
	return s.stake
}

// Play deducts the stake from the viewer's points in the streamer's room and
// credits a weighted coin draw. The deduction does not move the viewer's tier.
func (s *rouletteService) Play(ctx context.Context, viewerID, streamerID int64) (*interfaces.RouletteResult, error) {
	if _, err := requireActor(ctx, s.userRepo, viewerID); err != nil {
		return nil, err
	}
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, viewerID, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	if progress == nil || progress.Points < s.stake {
		var have int64
		if progress != nil {
			have = progress.Points
		}
		return nil, domain.NewInsufficientFundsError("insufficient points: have %d, need %d", have, s.stake)
	}

	progress, err = s.progressRepo.DeductPoints(ctx, viewerID, streamerID, s.stake)
	if err != nil {
		if errors.Is(err, interfaces.ErrInsufficientPoints) {
			return nil, domain.NewInsufficientFundsError("insufficient points for a %d point spin", s.stake)
		}
		return nil, fmt.Errorf("failed to deduct stake: %w", err)
	}

	sectorIndex, sector := s.wheel.SectorAt(s.pick(s.wheel.SlotCount()))

	balance, err := s.balanceRepo.GetOrInitialize(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	balanceAfter := balance.Balance
	if sector.Coins > 0 {
		balanceAfter, err = s.balanceRepo.Credit(ctx, viewerID, sector.Coins)
		if err != nil {
			return nil, fmt.Errorf("failed to credit winnings: %w", err)
		}
	}

	record := &entities.WagerRecord{
		ViewerID:        viewerID,
		StreamerID:      streamerID,
		StakePoints:     s.stake,
		SectorIndex:     sectorIndex,
		CoinsWon:        sector.Coins,
		BalanceAfter:    balanceAfter,
		PointsAfter:     progress.Points,
		CorrelationCode: uuid.NewString(),
	}
	if err := s.wagerRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record wager: %w", err)
	}

	if sector.Coins > 0 {
		history := entities.NewBalanceHistory(viewerID, balanceAfter, sector.Coins, entities.TransactionTypeRouletteWin, map[string]any{
			"streamer_id":  streamerID,
			"stake_points": s.stake,
			"sector_index": sectorIndex,
		})
		history.RelateTo(entities.RelatedTypeWager, record.ID)
		if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
			return nil, err
		}

		message := fmt.Sprintf("You won %d coins on the roulette", sector.Coins)
		payload := map[string]any{
			"streamerId":      streamerID,
			"coinsWon":        sector.Coins,
			"sectorIndex":     sectorIndex,
			"correlationCode": record.CorrelationCode,
		}
		if _, err := s.notificationService.Emit(ctx, viewerID, entities.NotificationTypeRouletteWon, message, payload); err != nil {
			return nil, fmt.Errorf("failed to emit roulette notification: %w", err)
		}
	}

	event := events.RoulettePlayedEvent{
		ViewerID:     viewerID,
		StreamerID:   streamerID,
		StakePoints:  s.stake,
		SectorIndex:  sectorIndex,
		CoinsWon:     sector.Coins,
		BalanceAfter: balanceAfter,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish roulette played event")
	}

	log.WithFields(log.Fields{
		"viewerID":    viewerID,
		"streamerID":  streamerID,
		"sectorIndex": sectorIndex,
		"coinsWon":    sector.Coins,
		"pointsAfter": progress.Points,
	}).Info("Roulette played")

	return &interfaces.RouletteResult{
		Record:       record,
		Sector:       sector,
		BalanceAfter: balanceAfter,
		PointsAfter:  progress.Points,
	}, nil
}
