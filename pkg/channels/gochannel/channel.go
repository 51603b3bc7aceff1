// Package gochannel provides the in-process pub/sub used for system notifications when no broker
// is configured.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Config tunes the in-process pub/sub.
type Config struct {
	Buffer int64
	// Replay keeps published messages for subscribers that arrive later and makes Publish wait
	// for the subscriber ack.
	Replay bool
}

var DefaultConfig = Config{Buffer: 1000}

// CreateChannel returns one GoChannel as both publisher and subscriber. Without Replay, messages
// published while nobody is subscribed to the topic are dropped.
func CreateChannel(logger watermill.LoggerAdapter, cfg Config) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            cfg.Buffer,
			Persistent:                     cfg.Replay,
			BlockPublishUntilSubscriberAck: cfg.Replay,
		},
		logger,
	)

	return pubSub, pubSub, nil
}
