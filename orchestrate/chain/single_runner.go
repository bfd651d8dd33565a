package chain

import (
	"context"
	"time"

	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/observability"
	"github.com/jidogo/runtime/orchestrate/workflow"
)

// SingleRunner is the "single" RunStrategy: it
// executes only the head of an agent's pending instructions and
// re-enqueues the rest, instead of draining the whole queue like Runner
// does. A caller that wants one instruction advanced per command, e.g. to
// interleave with other agents between steps, selects it via
// opts["runner"] = "single".
type SingleRunner struct {
	executor *workflow.Executor
	observer observability.Observer
}

// NewSingleRunner builds a SingleRunner sharing executor and observer with
// the rest of a chain.Agent's strategies.
func NewSingleRunner(executor *workflow.Executor, observer observability.Observer) *SingleRunner {
	return &SingleRunner{executor: executor, observer: observer}
}

// Run executes the first pending instruction in state only, re-enqueuing
// the remainder unchanged. It otherwise follows the same apply_state,
// context, and strict_validation opts semantics as Runner.Run.
func (r *SingleRunner) Run(ctx context.Context, state agent.State, opts map[string]any) (Result, error) {
	pending, state := state.DrainPendingInstructions()

	r.observer.OnEvent(ctx, observability.Event{
		Type:      EventStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "chain.SingleRunner.Run",
		Data:      map[string]any{"instruction_count": len(pending)},
	})

	if len(pending) == 0 {
		r.complete(ctx, 0, false)
		return Result{Final: state}, nil
	}

	head, rest := pending[0], pending[1:]
	if len(rest) > 0 {
		state = state.EnqueueInstructions(rest)
	}

	applyState := applyStateOpt(opts)

	outcome, err := runInstruction(ctx, r.executor, state, head, opts)
	if err != nil {
		r.complete(ctx, 1, true)
		return Result{Final: state, Steps: 0}, &Error{StepIndex: 0, Action: head.Action, State: state, Err: err}
	}

	var directives []directive.Directive
	if outcome.Directive != nil {
		directives = append(directives, *outcome.Directive)
	}

	if applyState {
		state = state.Merge(outcome.Result)
	}
	state = state.WithResult(outcome.Result)

	agentDirectives, serverDirectives := directive.Split(directives)
	for _, d := range agentDirectives {
		if d.Kind == directive.KindEnqueueInstructions {
			state = state.EnqueueInstructions(d.Instructions)
		}
	}

	r.complete(ctx, 1, false)

	return Result{
		Final:            state,
		Steps:            1,
		ServerDirectives: serverDirectives,
	}, nil
}

func (r *SingleRunner) complete(ctx context.Context, steps int, errored bool) {
	level := observability.LevelInfo
	if errored {
		level = observability.LevelWarning
	}
	r.observer.OnEvent(ctx, observability.Event{
		Type:      EventComplete,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "chain.SingleRunner.Run",
		Data:      map[string]any{"steps": steps, "error": errored},
	})
}
