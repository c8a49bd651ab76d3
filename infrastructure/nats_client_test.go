package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurableName(t *testing.T) {
	assert.Equal(t, "streameconomy-chat_messages_sent", durableName("chat.messages.sent"))
	assert.Equal(t, "streameconomy-platform_any_all", durableName("platform.*.>"))
}

func TestMissingSubjects(t *testing.T) {
	existing := []string{"economy.gifts.sent", "economy.recharges.completed"}

	assert.Empty(t, missingSubjects(existing, []string{"economy.gifts.sent"}))
	assert.Equal(t, []string{"economy.levels.viewer"},
		missingSubjects(existing, []string{"economy.gifts.sent", "economy.levels.viewer"}))
}

func TestNewNATSClient_BackoffCoversMaxDeliver(t *testing.T) {
	client := NewNATSClient("nats://localhost:4222")

	assert.NotEmpty(t, client.nakBackoff)
	assert.LessOrEqual(t, len(client.nakBackoff), client.maxDeliver)
	for i := 1; i < len(client.nakBackoff); i++ {
		assert.Greater(t, client.nakBackoff[i], client.nakBackoff[i-1])
	}
	assert.Equal(t, 30*time.Second, client.ackWait)
}

func TestNATSClient_NotConnected(t *testing.T) {
	client := NewNATSClient("nats://localhost:4222")

	assert.ErrorIs(t, client.EnsureStream("s", "", []string{"a"}), errNotConnected)
	assert.ErrorIs(t, client.Subscribe("a", func([]byte) error { return nil }), errNotConnected)
	assert.NoError(t, client.Close())
}
