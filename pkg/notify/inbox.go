package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/saviser/automation/pkg/models"
)

const DefaultInboxSize = 500

// Inbox consumes SystemTopic and keeps the most recent notifications for the UI to read.
type Inbox struct {
	mu       sync.RWMutex
	items    []models.Notification
	capacity int
	logger   *slog.Logger
}

func NewInbox(capacity int, logger *slog.Logger) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxSize
	}

	return &Inbox{
		capacity: capacity,
		logger:   logger.With("module", "notification_inbox"),
	}
}

// Consume subscribes to SystemTopic and records messages in the background until ctx is done or
// the subscriber is closed. Only messages published after Consume returns are guaranteed to be seen.
func (i *Inbox) Consume(ctx context.Context, subscriber message.Subscriber) error {
	messages, err := subscriber.Subscribe(ctx, SystemTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SystemTopic, err)
	}

	go func() {
		for msg := range messages {
			var n models.Notification
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				i.logger.Error("Dropping malformed notification", "message_id", msg.UUID, "error", err)
				msg.Ack()

				continue
			}

			i.add(n)
			msg.Ack()
		}

		i.logger.Debug("Notification consumer stopped")
	}()

	return nil
}

func (i *Inbox) add(n models.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = append(i.items, n)
	if over := len(i.items) - i.capacity; over > 0 {
		i.items = slices.Delete(i.items, 0, over)
	}
}

// Recent returns up to limit notifications, newest first. A non-empty recipient keeps only the
// notifications addressed to it.
func (i *Inbox) Recent(recipient string, limit int) []models.Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]models.Notification, 0)

	for idx := len(i.items) - 1; idx >= 0 && len(out) < limit; idx-- {
		n := i.items[idx]
		if recipient != "" && !slices.Contains(n.Recipients, recipient) {
			continue
		}

		out = append(out, n)
	}

	return out
}
