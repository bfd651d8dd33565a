// Package directive defines the Directive tagged union: the structured
// control value returned by Cmd or an Action's Run, interpreted by the
// runtime to enqueue further work, transition status, or spawn/stop
// subordinate servers.
package directive

import (
	"fmt"

	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
)

// Kind identifies which variant of Directive is populated. The runtime
// only interprets the kinds it knows; any other value fails validation.
type Kind string

const (
	KindEnqueueInstructions Kind = "enqueue_instructions"
	KindTransition          Kind = "transition"
	KindSpawnChild          Kind = "spawn_child"
	KindStopChild           Kind = "stop_child"
	KindRegisterOutput      Kind = "register_output"
)

// Directive is the sum type of control values a Cmd invocation or an
// Action's Run may return. Only the fields relevant to Kind are populated;
// the zero value of the rest is ignored.
type Directive struct {
	Kind Kind

	// EnqueueInstructions
	Instructions []signal.Instruction

	// Transition
	ToStatus Status

	// SpawnChild
	ChildType   string
	ChildConfig map[string]any

	// StopChild
	ChildID string

	// RegisterOutput
	OutputTarget string
}

// Scope reports whether a directive is applied in-place to the agent
// (agent directive) or returned to the server's owner (server
// directive).
type Scope int

const (
	ScopeAgent Scope = iota
	ScopeServer
)

// ScopeOf classifies a directive by where it is applied. EnqueueInstructions
// is an agent directive (it mutates the agent's own pending queue in
// place); everything else is returned to the caller as a server directive.
func ScopeOf(d Directive) Scope {
	if d.Kind == KindEnqueueInstructions {
		return ScopeAgent
	}
	return ScopeServer
}

// Validate reports whether d is a recognized, well-formed directive.
func Validate(d Directive) error {
	switch d.Kind {
	case KindEnqueueInstructions:
		if len(d.Instructions) == 0 {
			return kerr.New(kerr.ValidationError, "enqueue_instructions directive carries no instructions", map[string]any{"kind": d.Kind})
		}
	case KindTransition:
		if d.ToStatus == "" {
			return kerr.New(kerr.ValidationError, "transition directive missing to_status", map[string]any{"kind": d.Kind})
		}
	case KindSpawnChild:
		if d.ChildType == "" {
			return kerr.New(kerr.ValidationError, "spawn_child directive missing child_type", map[string]any{"kind": d.Kind})
		}
	case KindStopChild:
		if d.ChildID == "" {
			return kerr.New(kerr.ValidationError, "stop_child directive missing child_id", map[string]any{"kind": d.Kind})
		}
	case KindRegisterOutput:
		if d.OutputTarget == "" {
			return kerr.New(kerr.ValidationError, "register_output directive missing output_target", map[string]any{"kind": d.Kind})
		}
	default:
		return kerr.New(kerr.ValidationError, fmt.Sprintf("unknown directive kind %q", d.Kind), map[string]any{"kind": d.Kind})
	}
	return nil
}

// Split partitions directives into agent-scoped (applied in-place) and
// server-scoped (returned to the caller), preserving relative order
// within each partition.
func Split(directives []Directive) (agentDirectives, serverDirectives []Directive) {
	for _, d := range directives {
		if ScopeOf(d) == ScopeAgent {
			agentDirectives = append(agentDirectives, d)
		} else {
			serverDirectives = append(serverDirectives, d)
		}
	}
	return agentDirectives, serverDirectives
}
