package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/saviser/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPushSender_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient("redis://" + endpoint)
	require.NoError(t, err)
	defer client.Close()

	subscription := client.Subscribe(ctx, PushPrefix+"D1")
	defer subscription.Close()

	_, err = subscription.Receive(ctx)
	require.NoError(t, err)

	sender := NewPushSender(client, testLogger())
	require.NoError(t, sender.Deliver(ctx, testNotification(models.ChannelPush)))

	select {
	case msg := <-subscription.Channel():
		var decoded models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
		assert.Equal(t, "N1", decoded.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("push notification not received")
	}
}
