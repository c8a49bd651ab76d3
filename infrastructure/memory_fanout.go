package infrastructure

import (
	"context"
	"sync"

	"streameconomy/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const subscriptionBuffer = 64

// MemoryFanout delivers channel messages to subscribers of this process only
type MemoryFanout struct {
	mu       sync.RWMutex
	channels map[string]map[*memorySubscription]struct{}
}

// NewMemoryFanout creates an in-process fanout
func NewMemoryFanout() *MemoryFanout {
	return &MemoryFanout{
		channels: make(map[string]map[*memorySubscription]struct{}),
	}
}

type memorySubscription struct {
	fanout    *MemoryFanout
	channels  []string
	messages  chan interfaces.FanoutMessage
	closeOnce sync.Once
}

// JoinChannel subscribes to channels until the subscription is closed or ctx ends
func (f *MemoryFanout) JoinChannel(ctx context.Context, channels ...string) (interfaces.Subscription, error) {
	sub := &memorySubscription{
		fanout:   f,
		channels: channels,
		messages: make(chan interfaces.FanoutMessage, subscriptionBuffer),
	}

	f.mu.Lock()
	for _, channel := range channels {
		if f.channels[channel] == nil {
			f.channels[channel] = make(map[*memorySubscription]struct{})
		}
		f.channels[channel][sub] = struct{}{}
	}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return sub, nil
}

// Publish hands payload to every current subscriber of channel. A subscriber
// whose buffer is full misses the message rather than blocking the publisher.
func (f *MemoryFanout) Publish(ctx context.Context, channel string, payload []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	message := interfaces.FanoutMessage{Channel: channel, Payload: payload}
	for sub := range f.channels[channel] {
		select {
		case sub.messages <- message:
		default:
			log.WithField("channel", channel).Warn("Dropping real-time message for slow subscriber")
		}
	}
	return nil
}

// Messages returns the delivery channel, closed when the subscription ends
func (s *memorySubscription) Messages() <-chan interfaces.FanoutMessage {
	return s.messages
}

// Close leaves every joined channel
func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.fanout.mu.Lock()
		for _, channel := range s.channels {
			delete(s.fanout.channels[channel], s)
			if len(s.fanout.channels[channel]) == 0 {
				delete(s.fanout.channels, channel)
			}
		}
		// Closed under the write lock so no Publish can send on it afterwards
		close(s.messages)
		s.fanout.mu.Unlock()
	})
	return nil
}
