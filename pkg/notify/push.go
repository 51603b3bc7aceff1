package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/template"
)

// PushPrefix is prepended to the recipient to form the Redis pub/sub channel.
const PushPrefix = "saviser:push:"

// RedisPublisher is the part of a go-redis client used for push delivery.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// PushSender publishes one message per recipient on Redis pub/sub, where device gateways listen.
type PushSender struct {
	client RedisPublisher
	logger *slog.Logger
}

func NewPushSender(client RedisPublisher, logger *slog.Logger) *PushSender {
	return &PushSender{
		client: client,
		logger: logger.With("module", "push_notifications"),
	}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return redis.NewClient(opts), nil
}

// pushMessage carries the rendered text next to the notification fields, so devices do not
// need the template catalog.
type pushMessage struct {
	models.Notification
	template.Message
}

func (s *PushSender) Deliver(ctx context.Context, n models.Notification) error {
	if len(n.Recipients) == 0 {
		return ErrNoRecipients
	}

	body, err := json.Marshal(pushMessage{Notification: n, Message: template.RenderNotification(n)})
	if err != nil {
		return fmt.Errorf("failed to marshal notification %s: %w", n.ID, err)
	}

	for _, recipient := range n.Recipients {
		receivers, err := s.client.Publish(ctx, PushPrefix+recipient, body).Result()
		if err != nil {
			return fmt.Errorf("failed to push notification %s to %s: %w", n.ID, recipient, err)
		}

		if receivers == 0 {
			s.logger.Warn("Push notification had no listeners", "notification_id", n.ID, "recipient", recipient)
		}
	}

	return nil
}
