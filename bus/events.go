package bus

import "github.com/jidogo/runtime/observability"

// EventType constants for the Output Emitter's own telemetry (distinct from
// the domain event Signals it delivers to subscribers).
const (
	EventSubscribe   observability.EventType = "bus.subscribe"
	EventUnsubscribe observability.EventType = "bus.unsubscribe"
	EventDeliver     observability.EventType = "bus.deliver"
	EventDrop        observability.EventType = "bus.drop"
)
