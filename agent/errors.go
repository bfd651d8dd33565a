package agent

import "errors"

// Sentinel errors for the agent factory registry.
var (
	ErrAgentNotFound  = errors.New("agent type not found")
	ErrAgentExists    = errors.New("agent type already registered")
	ErrEmptyAgentName = errors.New("agent type name is empty")
)
