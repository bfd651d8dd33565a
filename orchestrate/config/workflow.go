package config

import "time"

// WorkflowConfig defines configuration for the single-action workflow
// executor: per-attempt timeout, retry backoff, and telemetry verbosity.
// These are the Executor's defaults; a signal's per-instruction Opts
// (timeout/max_retries/backoff/telemetry) override them on a single
// call.
//
// Durations unmarshal from JSON as integer nanoseconds. Example JSON:
//
//	{
//	  "timeout": 5000000000,
//	  "max_retries": 1,
//	  "telemetry": "full",
//	  "observer": "slog"
//	}
type WorkflowConfig struct {
	// Timeout bounds a single execution attempt. A timed-out attempt is
	// never retried, regardless of MaxRetries. 0 means no deadline.
	Timeout time.Duration `json:"timeout"`

	// MaxRetries is the number of retries permitted after the first
	// attempt fails with a non-timeout error. 0 means no retries: the
	// action runs exactly once.
	MaxRetries int `json:"max_retries"`

	// BackoffBase is the delay before the first retry. Subsequent
	// retries double this delay, capped at BackoffCap.
	BackoffBase time.Duration `json:"backoff_base"`

	// BackoffCap bounds the exponential backoff delay between retries.
	BackoffCap time.Duration `json:"backoff_cap"`

	// Telemetry selects how much of the Run/Retry/Compensate telemetry is
	// emitted: "full" (default), "minimal" (terminal outcome only), or
	// "silent" (nothing). A per-call opts["telemetry"] overrides this.
	Telemetry string `json:"telemetry"`

	// Observer specifies which observer implementation to use ("noop", "slog", etc.)
	Observer string `json:"observer"`
}

// DefaultWorkflowConfig returns the executor defaults: a 5s attempt
// timeout, one retry, 250ms initial backoff capped at 30s, full
// telemetry.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		BackoffBase: 250 * time.Millisecond,
		BackoffCap:  30 * time.Second,
		Telemetry:   "full",
		Observer:    "slog",
	}
}

func (c *WorkflowConfig) Merge(source *WorkflowConfig) {
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}

	if source.MaxRetries > 0 {
		c.MaxRetries = source.MaxRetries
	}

	if source.BackoffBase > 0 {
		c.BackoffBase = source.BackoffBase
	}

	if source.BackoffCap > 0 {
		c.BackoffCap = source.BackoffCap
	}

	if source.Telemetry != "" {
		c.Telemetry = source.Telemetry
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
