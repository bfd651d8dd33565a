// Package agent defines the Agent plugin surface the runtime drives, the
// immutable State an agent carries, and the factory registry used to
// spawn named child agent types.
package agent

import (
	"context"
	"time"

	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/signal"
)

// Work is the sum of what Cmd may be asked to process: either the ordered
// instructions carried by a command signal, or a single directive
// extracted from a directive signal. Exactly one field is populated.
type Work struct {
	Instructions []signal.Instruction
	Directive    *directive.Directive
}

// FromInstructions builds a Work value for the Command Path.
func FromInstructions(instructions []signal.Instruction) Work {
	return Work{Instructions: instructions}
}

// FromDirective builds a Work value for the Directive Path.
func FromDirective(d directive.Directive) Work {
	return Work{Directive: &d}
}

// Agent is the pluggable unit the runtime's Server drives. Cmd processes
// work against the current State and returns the new State together with
// any directives the runtime must interpret, or an error.
type Agent interface {
	Cmd(ctx context.Context, state State, work Work, data, opts map[string]any) (State, []directive.Directive, error)
}

// ParamValidator is an optional capability: an Agent that wants incoming
// data validated before Cmd runs implements this.
type ParamValidator interface {
	ValidateParams(params map[string]any) error
}

// Compensator is an optional capability mirroring action.Compensator at
// the agent level: the command path invokes OnError after a failed Cmd
// when the agent's metadata enables compensation.
type Compensator interface {
	OnError(ctx context.Context, params map[string]any, cause error, execContext map[string]any) (map[string]any, error)
}

// MetadataProvider is an optional capability exposing compensation
// configuration for an Agent's own OnError.
type MetadataProvider interface {
	Metadata() Metadata
}

// Metadata carries static facts about an Agent beyond its Cmd signature.
type Metadata struct {
	Compensation CompensationMetadata
}

// CompensationMetadata controls whether and how an Agent's OnError is
// invoked.
type CompensationMetadata struct {
	Enabled bool
	Timeout time.Duration
}

// MetadataOf returns a's Metadata if it implements MetadataProvider, or the
// zero value (compensation disabled) otherwise.
func MetadataOf(a Agent) Metadata {
	if mp, ok := a.(MetadataProvider); ok {
		return mp.Metadata()
	}
	return Metadata{}
}
