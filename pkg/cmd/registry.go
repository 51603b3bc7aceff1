// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/saviser/automation/pkg/engine"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/notify"
	"github.com/saviser/automation/pkg/rulefile"
)

// NewNotifier routes each notification channel to its sender. Push goes to Redis when
// redisURL is set; channels without a gateway are logged.
func NewNotifier(publisher message.Publisher, redisURL string, logger *slog.Logger) (*notify.Router, error) {
	router := notify.NewRouter(logger)

	system, err := notify.NewSystemChannel(publisher, logger)
	if err != nil {
		return nil, err
	}

	router.Register(models.ChannelSystem, system)

	if redisURL != "" {
		client, err := notify.NewRedisClient(redisURL)
		if err != nil {
			return nil, err
		}

		router.Register(models.ChannelPush, notify.NewPushSender(client, logger))
	} else {
		router.Register(models.ChannelPush, notify.NewLogSender(models.ChannelPush, logger))
	}

	router.Register(models.ChannelSMS, notify.NewLogSender(models.ChannelSMS, logger))
	router.Register(models.ChannelEmail, notify.NewLogSender(models.ChannelEmail, logger))

	return router, nil
}

// RegisterRuleFile adds every rule of a YAML rule file to the engine.
func RegisterRuleFile(eng *engine.Engine, path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	rules, err := rulefile.Load(path)
	if err != nil {
		return 0, err
	}

	for _, rule := range rules {
		if err := eng.AddRule(rule); err != nil {
			return 0, fmt.Errorf("failed to register rule %q from %s: %w", rule.ID, path, err)
		}
	}

	return len(rules), nil
}
