package services

import (
	"context"
	"fmt"
	"strings"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	eventPublisher   interfaces.EventPublisher
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo interfaces.NotificationRepository, eventPublisher interfaces.EventPublisher) interfaces.NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		eventPublisher:   eventPublisher,
	}
}

// Emit persists the notification first. The real-time event is only queued
// once the row exists, and the transactional publisher holds it until commit.
func (s *notificationService) Emit(ctx context.Context, userID int64, notificationType entities.NotificationType, message string, payload map[string]any) (*entities.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("notification message cannot be empty")
	}
	if payload == nil {
		payload = map[string]any{}
	}

	notification := &entities.Notification{
		UserID:  userID,
		Type:    notificationType,
		Message: message,
		Payload: payload,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	event := events.NotificationCreatedEvent{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Kind:           notification.Type,
		Message:        notification.Message,
		Payload:        notification.Payload,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"notificationID": notification.ID,
			"userID":         userID,
			"error":          err,
		}).Error("Failed to publish notification event")
	}

	return notification, nil
}

func (s *notificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entities.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	notifications, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead only matches notifications owned by userID, so another user's id
// reads as not found
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int64) error {
	matched, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !matched {
		return domain.NewNotFoundError("notification %d not found", notificationID)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	count, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
