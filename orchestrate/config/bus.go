package config

import (
	"log/slog"
	"time"
)

// BusConfig defines configuration for the Output Emitter (subscriber fan-out).
type BusConfig struct {
	// Name identifies the bus instance for logging.
	Name string `json:"name"`

	// SubscriberBufferSize bounds each subscriber's delivery channel. A full
	// channel causes the bus to drop the event and log a warning rather than
	// block the publishing agent.
	SubscriberBufferSize int `json:"subscriber_buffer_size"`

	// PublishTimeout bounds how long Publish waits on a slow subscriber
	// when DropPolicy is "block", before giving up and dropping anyway.
	PublishTimeout time.Duration `json:"publish_timeout"`

	// DropPolicy controls what Publish does when a subscriber's channel is
	// full: "drop" (default) gives up immediately and logs a warning;
	// "block" waits up to PublishTimeout first.
	DropPolicy string `json:"drop_policy"`

	// Observer specifies which observer implementation to use ("noop", "slog", etc.)
	Observer string `json:"observer"`

	// Logger is carried on the config (bus.New fills in a default when it
	// is nil), but the Bus does not write to it: drop warnings and
	// subscription lifecycle events go to the Observer.
	Logger *slog.Logger `json:"-"`
}

// DefaultBusConfig returns a BusConfig with sensible defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Name:                 "default",
		SubscriberBufferSize: 64,
		PublishTimeout:       5 * time.Second,
		DropPolicy:           "drop",
		Observer:             "slog",
		Logger:               slog.Default(),
	}
}

func (c *BusConfig) Merge(source *BusConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.SubscriberBufferSize > 0 {
		c.SubscriberBufferSize = source.SubscriberBufferSize
	}

	if source.PublishTimeout > 0 {
		c.PublishTimeout = source.PublishTimeout
	}

	if source.DropPolicy != "" {
		c.DropPolicy = source.DropPolicy
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.Logger != nil {
		c.Logger = source.Logger
	}
}
