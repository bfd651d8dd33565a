package chain

import "github.com/jidogo/runtime/observability"

// EventType constants for the instruction chain runner.
const (
	EventStart    observability.EventType = "chain.start"
	EventComplete observability.EventType = "chain.complete"
	EventStep     observability.EventType = "chain.step"
)
