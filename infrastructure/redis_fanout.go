package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"streameconomy/domain/interfaces"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	log "github.com/sirupsen/logrus"
)

// RedisFanout delivers channel messages across instances through Redis pub/sub
type RedisFanout struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisFanout creates a fanout over an existing client
func NewRedisFanout(client *redis.Client) *RedisFanout {
	return &RedisFanout{client: client}
}

// Publish sends payload to channel
func (f *RedisFanout) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := f.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// JoinChannel subscribes to channels. The subscription is confirmed before
// returning, so messages published afterwards are delivered.
func (f *RedisFanout) JoinChannel(ctx context.Context, channels ...string) (interfaces.Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to join channels %v: %w", channels, err)
	}

	sub := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan interfaces.FanoutMessage, subscriptionBuffer),
		done:     make(chan struct{}),
	}
	go sub.forward(ctx)

	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	messages  chan interfaces.FanoutMessage
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) forward(ctx context.Context) {
	defer close(s.messages)

	redisCh := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-redisCh:
			if !ok {
				return
			}
			select {
			case s.messages <- interfaces.FanoutMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			default:
				log.WithField("channel", msg.Channel).Warn("Dropping real-time message for slow subscriber")
			}
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		}
	}
}

// Messages returns the delivery channel, closed when the subscription ends
func (s *redisSubscription) Messages() <-chan interfaces.FanoutMessage {
	return s.messages
}

// Close unsubscribes from Redis
func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
