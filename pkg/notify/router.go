// Package notify delivers notifications produced by the automation engine.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/protocol"
)

// Router dispatches a notification to the sender registered for its channel.
type Router struct {
	mu      sync.RWMutex
	senders map[string]protocol.NotificationChannel
	logger  *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		senders: make(map[string]protocol.NotificationChannel),
		logger:  logger.With("module", "notification_router"),
	}
}

// Register binds sender to channel, replacing any previous sender.
func (r *Router) Register(channel string, sender protocol.NotificationChannel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.senders[channel] = sender
}

func (r *Router) Deliver(ctx context.Context, n models.Notification) error {
	r.mu.RLock()
	sender, ok := r.senders[n.Channel]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSender, n.Channel)
	}

	return sender.Deliver(ctx, n)
}

// Channels lists the registered channel names.
func (r *Router) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.senders))
	for channel := range r.senders {
		out = append(out, channel)
	}

	return out
}
