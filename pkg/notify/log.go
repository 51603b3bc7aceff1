package notify

import (
	"context"
	"log/slog"

	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/template"
)

// LogSender writes notifications to the log. It stands in for channels without a gateway.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(channel string, logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "notifications", "channel", channel)}
}

func (s *LogSender) Deliver(_ context.Context, n models.Notification) error {
	msg := template.RenderNotification(n)

	s.logger.Info("Notification",
		"notification_id", n.ID,
		"title", msg.Title,
		"message", msg.Body,
		"template", n.Template,
		"recipients", n.Recipients,
		"priority", n.Priority)

	return nil
}
