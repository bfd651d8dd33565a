package config

// ServerConfig defines configuration for a single agent's server process:
// its signal queue depth and the sub-configs for the chain runner, the
// workflow executor, and the output bus.
//
// Example JSON:
//
//	{
//	  "queue_capacity": 256,
//	  "chain": {"observer": "slog"},
//	  "workflow": {"max_retries": 3},
//	  "bus": {"subscriber_buffer_size": 64},
//	  "observer": "slog"
//	}
type ServerConfig struct {
	// QueueCapacity bounds the server's pending signal queue: Submit
	// rejects a signal with a ValidationError when the queue already holds
	// this many. 0 means unbounded. Command signals materialized from
	// pending instructions are enqueued without this check.
	QueueCapacity int `json:"queue_capacity"`

	Chain    ChainConfig    `json:"chain"`
	Workflow WorkflowConfig `json:"workflow"`
	Bus      BusConfig      `json:"bus"`

	// Observer specifies which observer implementation the server itself
	// uses for its own lifecycle events (start, stop, dispatch).
	Observer string `json:"observer"`
}

// DefaultServerConfig returns a ServerConfig with each sub-config at its
// own defaults and a 256-signal queue capacity.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		QueueCapacity: 256,
		Chain:         DefaultChainConfig(),
		Workflow:      DefaultWorkflowConfig(),
		Bus:           DefaultBusConfig(),
		Observer:      "slog",
	}
}

func (c *ServerConfig) Merge(source *ServerConfig) {
	if source.QueueCapacity > 0 {
		c.QueueCapacity = source.QueueCapacity
	}

	c.Chain.Merge(&source.Chain)
	c.Workflow.Merge(&source.Workflow)
	c.Bus.Merge(&source.Bus)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
