package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/saviser/automation/pkg/channels/gochannel"
	"github.com/saviser/automation/pkg/channels/kafka"
)

// NewNotificationPubSub creates the publisher and subscriber system notifications flow through.
func NewNotificationPubSub(provider string, brokers string, logger *slog.Logger) (message.Publisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger, gochannel.DefaultConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create in-process pub/sub: %w", err)
		}

		return pub, sub, nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(brokers), "saviser-automation")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return pub, sub, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}
