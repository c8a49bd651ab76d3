package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"
	"streameconomy/domain/utils"

	log "github.com/sirupsen/logrus"
)

const maxGiftNameLength = 64

type giftService struct {
	userRepo            interfaces.UserRepository
	giftRepo            interfaces.GiftRepository
	balanceRepo         interfaces.BalanceRepository
	balanceHistoryRepo  interfaces.BalanceHistoryRepository
	progressionService  interfaces.ProgressionService
	notificationService interfaces.NotificationService
	eventPublisher      interfaces.EventPublisher
	maxQuantity         int64
}

// NewGiftService creates a new gift service. maxQuantity caps a single send.
func NewGiftService(
	userRepo interfaces.UserRepository,
	giftRepo interfaces.GiftRepository,
	balanceRepo interfaces.BalanceRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	progressionService interfaces.ProgressionService,
	notificationService interfaces.NotificationService,
	eventPublisher interfaces.EventPublisher,
	maxQuantity int64,
) interfaces.GiftService {
	return &giftService{
		userRepo:            userRepo,
		giftRepo:            giftRepo,
		balanceRepo:         balanceRepo,
		balanceHistoryRepo:  balanceHistoryRepo,
		progressionService:  progressionService,
		notificationService: notificationService,
		eventPublisher:      eventPublisher,
		maxQuantity:         maxQuantity,
	}
}

// SendGift charges the sender and credits points to the sender's progress
// in the streamer's room. The caller's unit of work makes the debit and the
// credit commit together.
func (s *giftService) SendGift(ctx context.Context, senderID, streamerID, giftID int64, quantity int64) (*interfaces.GiftResult, error) {
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be at least 1")
	}
	if quantity > s.maxQuantity {
		return nil, domain.NewValidationError("quantity cannot exceed %d", s.maxQuantity)
	}

	sender, err := requireActor(ctx, s.userRepo, senderID)
	if err != nil {
		return nil, err
	}
	if senderID == streamerID {
		return nil, domain.NewValidationError("you cannot send gifts to your own channel")
	}
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}

	gift, err := s.giftRepo.GetByID(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	if gift == nil || !gift.IsAvailableFrom(streamerID) {
		return nil, domain.NewNotFoundError("gift %d is not available in this channel", giftID)
	}

	totalCost, err := gift.TotalCost(quantity)
	if err != nil {
		return nil, domain.NewValidationError("quantity %d of %s is too large", quantity, gift.Name)
	}
	totalPoints, err := gift.TotalPoints(quantity)
	if err != nil {
		return nil, domain.NewValidationError("quantity %d of %s is too large", quantity, gift.Name)
	}

	balance, err := s.balanceRepo.GetOrInitialize(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if !balance.CanAfford(totalCost) {
		return nil, domain.NewInsufficientFundsError("insufficient coins: have %d, need %d", balance.Balance, totalCost)
	}

	newBalance, err := s.balanceRepo.Debit(ctx, senderID, totalCost)
	if err != nil {
		if errors.Is(err, interfaces.ErrInsufficientBalance) {
			return nil, domain.NewInsufficientFundsError("insufficient coins for %d x %s", quantity, gift.Name)
		}
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}

	history := entities.NewBalanceHistory(senderID, newBalance, -totalCost, entities.TransactionTypeGiftSent, map[string]any{
		"gift_id":     gift.ID,
		"gift_name":   gift.Name,
		"streamer_id": streamerID,
		"quantity":    quantity,
	})
	history.RelateTo(entities.RelatedTypeGift, gift.ID)
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	result := &interfaces.GiftResult{
		Gift:         gift,
		Quantity:     quantity,
		CoinsSpent:   totalCost,
		PointsEarned: totalPoints,
		BalanceAfter: newBalance,
	}

	if totalPoints > 0 {
		progress, err := s.progressionService.AddViewerPoints(ctx, senderID, streamerID, totalPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to credit gift points: %w", err)
		}
		result.Progress = progress.Progress
		result.TierChange = progress.TierChange
	}

	message := fmt.Sprintf("%s sent you %d x %s", sender.Username, quantity, gift.Name)
	payload := map[string]any{
		"senderId":       sender.ID,
		"senderUsername": sender.Username,
		"giftId":         gift.ID,
		"giftName":       gift.Name,
		"quantity":       quantity,
	}
	if _, err := s.notificationService.Emit(ctx, streamerID, entities.NotificationTypeGiftReceived, message, payload); err != nil {
		return nil, fmt.Errorf("failed to emit gift notification: %w", err)
	}

	event := events.GiftSentEvent{
		SenderID:       sender.ID,
		SenderUsername: sender.Username,
		StreamerID:     streamerID,
		GiftID:         gift.ID,
		GiftName:       gift.Name,
		Quantity:       quantity,
		CoinsSpent:     totalCost,
		PointsAwarded:  totalPoints,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish gift sent event")
	}

	log.WithFields(log.Fields{
		"senderID":   senderID,
		"streamerID": streamerID,
		"giftID":     gift.ID,
		"quantity":   quantity,
		"coinsSpent": totalCost,
		"points":     totalPoints,
	}).Info("Gift sent")

	return result, nil
}

func (s *giftService) CreateGift(ctx context.Context, actorID int64, name string, coinCost, pointsAwarded int64) (*entities.Gift, error) {
	if _, err := requireStreamerActor(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}

	gift := &entities.Gift{
		StreamerID:    actorID,
		Name:          strings.TrimSpace(name),
		CoinCost:      coinCost,
		PointsAwarded: pointsAwarded,
		Active:        true,
	}
	if err := validateGift(gift); err != nil {
		return nil, err
	}

	if err := s.giftRepo.Create(ctx, gift); err != nil {
		return nil, fmt.Errorf("failed to create gift: %w", err)
	}
	return gift, nil
}

func (s *giftService) UpdateGift(ctx context.Context, actorID, giftID int64, update interfaces.GiftUpdate) (*entities.Gift, error) {
	if _, err := requireStreamerActor(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}

	gift, err := s.giftRepo.GetByID(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gift: %w", err)
	}
	if gift == nil {
		return nil, domain.NewNotFoundError("gift %d not found", giftID)
	}
	if gift.StreamerID != actorID {
		return nil, domain.NewForbiddenError("gift %d belongs to another channel", giftID)
	}

	if update.Name != nil {
		gift.Name = strings.TrimSpace(*update.Name)
	}
	if update.CoinCost != nil {
		gift.CoinCost = *update.CoinCost
	}
	if update.PointsAwarded != nil {
		gift.PointsAwarded = *update.PointsAwarded
	}
	if update.Active != nil {
		gift.Active = *update.Active
	}
	if err := validateGift(gift); err != nil {
		return nil, err
	}

	if err := s.giftRepo.Update(ctx, gift); err != nil {
		return nil, fmt.Errorf("failed to update gift: %w", err)
	}
	return gift, nil
}

func (s *giftService) ListGifts(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error) {
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}
	gifts, err := s.giftRepo.ListByStreamer(ctx, streamerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list gifts: %w", err)
	}
	return gifts, nil
}

func validateGift(gift *entities.Gift) error {
	if gift.Name == "" {
		return domain.NewValidationError("gift name is required")
	}
	if len(gift.Name) > maxGiftNameLength {
		return domain.NewValidationError("gift name cannot exceed %d characters", maxGiftNameLength)
	}
	if gift.CoinCost <= 0 {
		return domain.NewValidationError("gift cost must be positive")
	}
	if gift.PointsAwarded < 0 {
		return domain.NewValidationError("gift points cannot be negative")
	}
	return nil
}
