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

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	maxIdempotencyKeyLength = 128
	maxCurrencyLength       = 8
	maxPaymentRailLength    = 32
)

type rechargeService struct {
	userRepo            interfaces.UserRepository
	balanceRepo         interfaces.BalanceRepository
	rechargeRepo        interfaces.RechargeRepository
	balanceHistoryRepo  interfaces.BalanceHistoryRepository
	notificationService interfaces.NotificationService
	eventPublisher      interfaces.EventPublisher
}

// NewRechargeService creates a new recharge service
func NewRechargeService(
	userRepo interfaces.UserRepository,
	balanceRepo interfaces.BalanceRepository,
	rechargeRepo interfaces.RechargeRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	notificationService interfaces.NotificationService,
	eventPublisher interfaces.EventPublisher,
) interfaces.RechargeService {
	return &rechargeService{
		userRepo:            userRepo,
		balanceRepo:         balanceRepo,
		rechargeRepo:        rechargeRepo,
		balanceHistoryRepo:  balanceHistoryRepo,
		notificationService: notificationService,
		eventPublisher:      eventPublisher,
	}
}

// Recharge credits purchased coins. A reused idempotency key is rejected as
// a conflict; the unique constraint backs the pre-check for concurrent retries.
// Recharges never touch tiers.
func (s *rechargeService) Recharge(ctx context.Context, request interfaces.RechargeRequest) (*entities.RechargeRecord, error) {
	if err := validateRechargeRequest(&request); err != nil {
		return nil, err
	}

	if _, err := requireActor(ctx, s.userRepo, request.ViewerID); err != nil {
		return nil, err
	}

	existing, err := s.rechargeRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("recharge %s was already processed", existing.ReceiptCode)
	}

	if _, err := s.balanceRepo.GetOrInitialize(ctx, request.ViewerID); err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	newBalance, err := s.balanceRepo.Credit(ctx, request.ViewerID, request.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	record := &entities.RechargeRecord{
		ViewerID:       request.ViewerID,
		Amount:         request.Amount,
		Currency:       request.Currency,
		PaymentRail:    request.PaymentRail,
		IdempotencyKey: request.IdempotencyKey,
		ReceiptCode:    newReceiptCode(),
		BalanceAfter:   newBalance,
	}
	if err := s.rechargeRepo.Create(ctx, record); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateIdempotencyKey) {
			return nil, domain.NewConflictError("recharge with this idempotency key was already processed")
		}
		return nil, fmt.Errorf("failed to create recharge record: %w", err)
	}

	history := entities.NewBalanceHistory(request.ViewerID, newBalance, request.Amount, entities.TransactionTypeRecharge, map[string]any{
		"currency":     request.Currency,
		"payment_rail": request.PaymentRail,
		"receipt_code": record.ReceiptCode,
	})
	history.RelateTo(entities.RelatedTypeRecharge, record.ID)
	if err := utils.RecordBalanceChange(ctx, s.balanceHistoryRepo, s.eventPublisher, history); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%d coins were added to your balance", request.Amount)
	payload := map[string]any{
		"amount":       request.Amount,
		"receiptCode":  record.ReceiptCode,
		"balanceAfter": newBalance,
	}
	if _, err := s.notificationService.Emit(ctx, request.ViewerID, entities.NotificationTypeCoinsRecharged, message, payload); err != nil {
		return nil, fmt.Errorf("failed to emit recharge notification: %w", err)
	}

	event := events.CoinsRechargedEvent{
		ViewerID:     request.ViewerID,
		Amount:       request.Amount,
		ReceiptCode:  record.ReceiptCode,
		BalanceAfter: newBalance,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish coins recharged event")
	}

	log.WithFields(log.Fields{
		"viewerID":     request.ViewerID,
		"amount":       request.Amount,
		"receiptCode":  record.ReceiptCode,
		"balanceAfter": newBalance,
	}).Info("Coins recharged")

	return record, nil
}

func validateRechargeRequest(request *interfaces.RechargeRequest) error {
	request.IdempotencyKey = strings.TrimSpace(request.IdempotencyKey)
	request.Currency = strings.ToUpper(strings.TrimSpace(request.Currency))
	request.PaymentRail = strings.TrimSpace(request.PaymentRail)

	if request.Amount <= 0 {
		return domain.NewValidationError("recharge amount must be positive")
	}
	if request.IdempotencyKey == "" {
		return domain.NewValidationError("an idempotency key is required")
	}
	if len(request.IdempotencyKey) > maxIdempotencyKeyLength {
		return domain.NewValidationError("idempotency key cannot exceed %d characters", maxIdempotencyKeyLength)
	}
	if request.Currency == "" || len(request.Currency) > maxCurrencyLength {
		return domain.NewValidationError("currency is required")
	}
	if request.PaymentRail == "" || len(request.PaymentRail) > maxPaymentRailLength {
		return domain.NewValidationError("payment rail is required")
	}
	return nil
}

// newReceiptCode returns an opaque unique receipt reference
func newReceiptCode() string {
	return "RC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
