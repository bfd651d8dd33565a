package config

// ChainConfig defines configuration for instruction chain execution.
//
// Example JSON:
//
//	{
//	  "capture_intermediate": true,
//	  "observer": "slog"
//	}
type ChainConfig struct {
	// CaptureIntermediate determines whether chain.Result.Intermediate
	// records the agent state after every instruction, or only the final
	// state.
	CaptureIntermediate bool `json:"capture_intermediate"`

	// Observer specifies which observer implementation to use ("noop", "slog", etc.)
	Observer string `json:"observer"`
}

// DefaultChainConfig returns sensible defaults for chain execution.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		CaptureIntermediate: false,
		Observer:            "slog",
	}
}

func (c *ChainConfig) Merge(source *ChainConfig) {
	if source.CaptureIntermediate {
		c.CaptureIntermediate = source.CaptureIntermediate
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
