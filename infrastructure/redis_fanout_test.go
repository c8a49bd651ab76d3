package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
			Labels: map[string]string{
				"test":      "streameconomy-fanout",
				"test-name": t.Name(),
				"cleanup":   "auto",
			},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisFanout_PublishAndJoin(t *testing.T) {
	t.Parallel()
	addr := setupRedis(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	fanout := NewRedisFanout(client)

	sub, err := fanout.JoinChannel(ctx, "room:streamer:1", "user:5")
	require.NoError(t, err)

	require.NoError(t, fanout.Publish(ctx, "room:streamer:2", []byte("elsewhere")))
	require.NoError(t, fanout.Publish(ctx, "user:5", []byte("level up")))

	msg := receive(t, sub)
	assert.Equal(t, "user:5", msg.Channel)
	assert.Equal(t, []byte("level up"), msg.Payload)

	require.NoError(t, sub.Close())
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-sub.Messages():
			return !open
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
