package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/template"
)

// SystemTopic carries in-app notifications for the UI.
const SystemTopic = "saviser.notifications"

// SystemChannel publishes notifications as JSON watermill messages.
type SystemChannel struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewSystemChannel(publisher message.Publisher, logger *slog.Logger) (*SystemChannel, error) {
	if publisher == nil {
		return nil, ErrNilPublisher
	}

	return &SystemChannel{
		publisher: publisher,
		topic:     SystemTopic,
		logger:    logger.With("module", "system_notifications"),
	}, nil
}

func (c *SystemChannel) Deliver(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification %s: %w", n.ID, err)
	}

	msg := message.NewMessage(n.ID, body)
	msg.Metadata.Set("template", n.Template)
	msg.Metadata.Set("priority", string(n.Priority))
	msg.Metadata.Set("title", template.RenderNotification(n).Title)
	msg.SetContext(ctx)

	if err := c.publisher.Publish(c.topic, msg); err != nil {
		return fmt.Errorf("failed to publish notification %s: %w", n.ID, err)
	}

	c.logger.Debug("Notification published", "notification_id", n.ID, "topic", c.topic)

	return nil
}
