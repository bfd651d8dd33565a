package workflow

import "github.com/jidogo/runtime/observability"

// EventType constants for the single-action workflow executor's telemetry.
const (
	EventStart       observability.EventType = "workflow.start"
	EventComplete    observability.EventType = "workflow.complete"
	EventError       observability.EventType = "workflow.error"
	EventRetry       observability.EventType = "workflow.retry"
	EventCompensate  observability.EventType = "workflow.compensate"
)
