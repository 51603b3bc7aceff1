package notify

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/saviser/automation/pkg/channels/gochannel"
	"github.com/saviser/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox_ConsumesSystemNotifications(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(testLogger()), gochannel.DefaultConfig)
	require.NoError(t, err)
	defer pub.Close()

	inbox := NewInbox(10, testLogger())
	require.NoError(t, inbox.Consume(context.Background(), sub))

	channel, err := NewSystemChannel(pub, testLogger())
	require.NoError(t, err)

	first := testNotification(models.ChannelSystem)
	second := testNotification(models.ChannelSystem)
	second.ID = "N2"
	second.Recipients = []string{"D3"}

	require.NoError(t, channel.Deliver(context.Background(), first))
	require.NoError(t, pub.Publish(SystemTopic, message.NewMessage("bad", []byte("not json"))))
	require.NoError(t, channel.Deliver(context.Background(), second))

	require.Eventually(t, func() bool {
		return len(inbox.Recent("", 10)) == 2
	}, time.Second, 10*time.Millisecond)

	recent := inbox.Recent("", 10)
	assert.Equal(t, "N2", recent[0].ID)
	assert.Equal(t, "N1", recent[1].ID)
	assert.Equal(t, "A1", recent[1].Payload["assignmentId"])

	forD1 := inbox.Recent("D1", 10)
	require.Len(t, forD1, 1)
	assert.Equal(t, "N1", forD1[0].ID)

	assert.Len(t, inbox.Recent("", 1), 1)
	assert.Empty(t, inbox.Recent("D9", 10))
}

func TestInbox_KeepsNewestWithinCapacity(t *testing.T) {
	inbox := NewInbox(2, testLogger())

	for _, id := range []string{"N1", "N2", "N3"} {
		n := testNotification(models.ChannelSystem)
		n.ID = id
		inbox.add(n)
	}

	recent := inbox.Recent("", 10)
	require.Len(t, recent, 2)
	assert.Equal(t, "N3", recent[0].ID)
	assert.Equal(t, "N2", recent[1].ID)
}

func TestInbox_ConsumeFailsOnClosedSubscriber(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(testLogger()), gochannel.DefaultConfig)
	require.NoError(t, err)

	inbox := NewInbox(0, testLogger())
	require.NoError(t, inbox.Consume(context.Background(), sub))
	require.NoError(t, sub.Close())

	assert.Error(t, inbox.Consume(context.Background(), sub))
	assert.Error(t, pub.Publish(SystemTopic, message.NewMessage("late", []byte("{}"))))
}
