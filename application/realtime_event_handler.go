package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"streameconomy/application/dto"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"
	"streameconomy/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

const fanoutPublishTimeout = 2 * time.Second

// RealtimeEventHandler pushes committed domain events to real-time channels
type RealtimeEventHandler interface {
	HandleGiftSent(ctx context.Context, event interface{}) error
	HandleViewerLevelUp(ctx context.Context, event interface{}) error
	HandleStreamerLevelUp(ctx context.Context, event interface{}) error
	HandleNotificationCreated(ctx context.Context, event interface{}) error
	HandleBalanceChange(ctx context.Context, event interface{}) error
}

type realtimeEventHandler struct {
	fanout interfaces.Fanout
	now    func() time.Time
}

// NewRealtimeEventHandler creates a handler that publishes to fanout
func NewRealtimeEventHandler(fanout interfaces.Fanout) RealtimeEventHandler {
	return &realtimeEventHandler{
		fanout: fanout,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HandleGiftSent announces a gift to the streamer's room
func (h *realtimeEventHandler) HandleGiftSent(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.GiftSentEvent](event, "GiftSentEvent")
	if err != nil {
		return err
	}

	return h.push(ctx, dto.RoomChannel(e.StreamerID), dto.MessageTypeGiftReceived, dto.GiftReceivedData{
		SenderID:       e.SenderID,
		SenderUsername: e.SenderUsername,
		GiftID:         e.GiftID,
		GiftName:       e.GiftName,
		Quantity:       e.Quantity,
		CoinsSpent:     e.CoinsSpent,
	})
}

// HandleViewerLevelUp announces a viewer promotion to the streamer's room
func (h *realtimeEventHandler) HandleViewerLevelUp(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.ViewerLevelUpEvent](event, "ViewerLevelUpEvent")
	if err != nil {
		return err
	}

	observability.GetMetrics().RecordLevelUp(observability.LevelUpViewer)

	return h.push(ctx, dto.RoomChannel(e.StreamerID), dto.MessageTypeLevelUpViewer, dto.LevelUpData{
		UserID:   e.ViewerID,
		TierID:   e.NewTierID,
		TierName: e.NewTierName,
		TierRank: e.NewTierRank,
		Total:    e.Points,
	})
}

// HandleStreamerLevelUp announces a streamer promotion to their own room
func (h *realtimeEventHandler) HandleStreamerLevelUp(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.StreamerLevelUpEvent](event, "StreamerLevelUpEvent")
	if err != nil {
		return err
	}

	observability.GetMetrics().RecordLevelUp(observability.LevelUpStreamer)

	return h.push(ctx, dto.RoomChannel(e.StreamerID), dto.MessageTypeLevelUpStreamer, dto.LevelUpData{
		UserID:   e.StreamerID,
		TierID:   e.NewTierID,
		TierName: e.NewTierName,
		TierRank: e.NewTierRank,
		Total:    e.AirtimeMinutes,
	})
}

// HandleNotificationCreated delivers a persisted notification to its owner
func (h *realtimeEventHandler) HandleNotificationCreated(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.NotificationCreatedEvent](event, "NotificationCreatedEvent")
	if err != nil {
		return err
	}

	return h.push(ctx, dto.UserChannel(e.UserID), dto.MessageTypeNotification, dto.NotificationData{
		NotificationID: e.NotificationID,
		Kind:           string(e.Kind),
		Message:        e.Message,
		Payload:        e.Payload,
	})
}

// HandleBalanceChange counts coin movements
func (h *realtimeEventHandler) HandleBalanceChange(ctx context.Context, event interface{}) error {
	e, err := AssertEventType[events.BalanceChangeEvent](event, "BalanceChangeEvent")
	if err != nil {
		return err
	}

	observability.GetMetrics().RecordBalanceTransaction(e.TransactionType.String())
	return nil
}

func (h *realtimeEventHandler) push(ctx context.Context, channel, messageType string, data any) error {
	payload, err := json.Marshal(dto.RealtimeMessage{
		Type:    messageType,
		Channel: channel,
		SentAt:  h.now(),
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", messageType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, fanoutPublishTimeout)
	defer cancel()

	channelKind := "room"
	if strings.HasPrefix(channel, dto.UserChannelPrefix) {
		channelKind = "user"
	}

	if err := h.fanout.Publish(ctx, channel, payload); err != nil {
		observability.GetMetrics().RecordFanoutDelivery(channelKind, observability.OutcomeFailure)
		return fmt.Errorf("failed to push %s to %s: %w", messageType, channel, err)
	}
	observability.GetMetrics().RecordFanoutDelivery(channelKind, observability.OutcomeSuccess)

	log.WithFields(log.Fields{
		"channel": channel,
		"type":    messageType,
	}).Debug("Pushed real-time message")
	return nil
}
