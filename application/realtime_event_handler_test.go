package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"streameconomy/application/dto"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	channel string
	payload []byte
}

// recordingFanout captures publishes without any subscribers
type recordingFanout struct {
	mu         sync.Mutex
	published  []publishedMessage
	publishErr error
}

func (f *recordingFanout) JoinChannel(ctx context.Context, channels ...string) (interfaces.Subscription, error) {
	return nil, errors.New("not supported")
}

func (f *recordingFanout) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedMessage{channel: channel, payload: payload})
	return nil
}

func (f *recordingFanout) only(t *testing.T) (string, map[string]any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.published, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(f.published[0].payload, &decoded))
	return f.published[0].channel, decoded
}

func TestRealtimeEventHandler_GiftSentGoesToRoom(t *testing.T) {
	fanout := &recordingFanout{}
	handler := NewRealtimeEventHandler(fanout)

	err := handler.HandleGiftSent(context.Background(), events.GiftSentEvent{
		SenderID:       100,
		SenderUsername: "viewer_one",
		StreamerID:     900,
		GiftID:         7,
		GiftName:       "Rose",
		Quantity:       3,
		CoinsSpent:     30,
	})

	require.NoError(t, err)
	channel, message := fanout.only(t)
	assert.Equal(t, "room:streamer:900", channel)
	assert.Equal(t, dto.MessageTypeGiftReceived, message["type"])
	data := message["data"].(map[string]any)
	assert.Equal(t, "Rose", data["giftName"])
	assert.Equal(t, float64(3), data["quantity"])
}

func TestRealtimeEventHandler_LevelUpsGoToRoom(t *testing.T) {
	t.Run("viewer", func(t *testing.T) {
		fanout := &recordingFanout{}
		handler := NewRealtimeEventHandler(fanout)

		err := handler.HandleViewerLevelUp(context.Background(), events.ViewerLevelUpEvent{
			ViewerID:    100,
			StreamerID:  900,
			Points:      1000,
			NewTierID:   2,
			NewTierName: "Silver",
			NewTierRank: 2,
		})

		require.NoError(t, err)
		channel, message := fanout.only(t)
		assert.Equal(t, "room:streamer:900", channel)
		assert.Equal(t, dto.MessageTypeLevelUpViewer, message["type"])
		data := message["data"].(map[string]any)
		assert.Equal(t, float64(100), data["userId"])
		assert.Equal(t, "Silver", data["tierName"])
	})

	t.Run("streamer", func(t *testing.T) {
		fanout := &recordingFanout{}
		handler := NewRealtimeEventHandler(fanout)

		err := handler.HandleStreamerLevelUp(context.Background(), events.StreamerLevelUpEvent{
			StreamerID:     900,
			AirtimeMinutes: 600,
			NewTierID:      4,
			NewTierName:    "Partner",
			NewTierRank:    2,
		})

		require.NoError(t, err)
		channel, message := fanout.only(t)
		assert.Equal(t, "room:streamer:900", channel)
		assert.Equal(t, dto.MessageTypeLevelUpStreamer, message["type"])
		assert.Equal(t, float64(600), message["data"].(map[string]any)["total"])
	})
}

func TestRealtimeEventHandler_NotificationGoesToUser(t *testing.T) {
	fanout := &recordingFanout{}
	handler := NewRealtimeEventHandler(fanout)

	err := handler.HandleNotificationCreated(context.Background(), events.NotificationCreatedEvent{
		NotificationID: 55,
		UserID:         100,
		Kind:           entities.NotificationTypeCoinsRecharged,
		Message:        "500 coins were added to your balance",
	})

	require.NoError(t, err)
	channel, message := fanout.only(t)
	assert.Equal(t, "user:100", channel)
	assert.Equal(t, dto.MessageTypeNotification, message["type"])
	assert.Equal(t, "COINS_RECHARGED", message["data"].(map[string]any)["kind"])
}

func TestRealtimeEventHandler_Failures(t *testing.T) {
	t.Run("wrong event type", func(t *testing.T) {
		handler := NewRealtimeEventHandler(&recordingFanout{})
		err := handler.HandleGiftSent(context.Background(), events.UserRegisteredEvent{UserID: 1})
		assert.Error(t, err)
	})

	t.Run("fanout error is returned", func(t *testing.T) {
		fanout := &recordingFanout{publishErr: errors.New("redis down")}
		handler := NewRealtimeEventHandler(fanout)

		err := handler.HandleNotificationCreated(context.Background(), events.NotificationCreatedEvent{UserID: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user:1")
	})

	t.Run("balance change publishes nothing", func(t *testing.T) {
		fanout := &recordingFanout{}
		handler := NewRealtimeEventHandler(fanout)

		err := handler.HandleBalanceChange(context.Background(), events.BalanceChangeEvent{
			UserID:          1,
			TransactionType: entities.TransactionTypeRecharge,
		})
		require.NoError(t, err)
		assert.Empty(t, fanout.published)
	})
}

type handlerRegistry struct {
	handlers map[events.EventType]func(context.Context, events.Event) error
}

func (r *handlerRegistry) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	r.handlers[eventType] = handler
}

func TestRegisterApplicationSubscriptions(t *testing.T) {
	registry := &handlerRegistry{handlers: make(map[events.EventType]func(context.Context, events.Event) error)}
	fanout := &recordingFanout{}

	RegisterApplicationSubscriptions(registry, fanout)

	assert.Len(t, registry.handlers, 5)
	for _, eventType := range []events.EventType{
		events.EventTypeGiftSent,
		events.EventTypeViewerLevelUp,
		events.EventTypeStreamerLevelUp,
		events.EventTypeNotificationCreated,
		events.EventTypeBalanceChange,
	} {
		assert.Contains(t, registry.handlers, eventType)
	}

	require.NoError(t, registry.handlers[events.EventTypeGiftSent](context.Background(), events.GiftSentEvent{StreamerID: 3}))
	channel, _ := fanout.only(t)
	assert.Equal(t, "room:streamer:3", channel)
}
