// Package observability carries structured telemetry events from the
// runtime's subsystems to pluggable observers. It is distinct from the
// bus package: bus delivers domain event signals to an agent's
// subscribers, while this package feeds the logging and tracing
// backends that no agent ever sees.
package observability

import (
	"context"
	"time"
)

// EventType identifies the kind of event. Each subsystem defines its own
// constants using this type (e.g. "workflow.start", "chain.complete").
type EventType string

// Event is a single telemetry record. The fields correspond one-to-one
// with OTel LogRecord fields: Type is the event name, Level the severity
// number, Source the instrumentation scope, and Data the attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer consumes telemetry events. Implementations must be safe for
// concurrent use; the runtime emits from multiple goroutines.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
