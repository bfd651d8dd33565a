package chain

import (
	"context"
	"errors"

	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/core/directive"
)

// RunStrategy executes an agent's pending instructions against state and
// returns the resulting Result. Runner ("chain", the default) drains the
// whole queue; SingleRunner ("single") advances only the head instruction.
// A command signal selects among an Agent's registered strategies via
// its "runner" option.
type RunStrategy interface {
	Run(ctx context.Context, state agent.State, opts map[string]any) (Result, error)
}

// Agent adapts a Runner into the agent.Agent plugin surface: it is the
// default, reusable Cmd implementation that drains and executes whatever
// instructions a command signal carries, and passes directive-signal work
// straight through for the runtime to interpret.
//
// Concrete agents with bespoke business logic implement agent.Agent
// themselves; Agent exists for hosts that only need "run these
// instructions through the registered actions," the common case the
// Command Path was designed around.
type Agent struct {
	runner     *Runner
	strategies map[string]RunStrategy
}

// AgentOption configures an Agent at construction.
type AgentOption func(*Agent)

// WithRunStrategy registers an additional named RunStrategy, selectable via
// a command signal's opts["runner"]. It overrides a strategy already
// registered under the same name, including the built-in "chain" and
// "single" strategies.
func WithRunStrategy(name string, strategy RunStrategy) AgentOption {
	return func(a *Agent) {
		a.strategies[name] = strategy
	}
}

// NewAgent builds a chain-backed Agent around runner. It pre-registers
// runner itself as the "chain" strategy and a SingleRunner sharing
// runner's executor and observer as the "single" strategy; opts can
// add more with WithRunStrategy.
func NewAgent(runner *Runner, opts ...AgentOption) *Agent {
	a := &Agent{
		runner:     runner,
		strategies: map[string]RunStrategy{},
	}
	a.strategies["chain"] = runner
	a.strategies["single"] = NewSingleRunner(runner.executor, runner.observer)

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Cmd implements agent.Agent. For instruction work (Command Path), it
// enqueues the instructions, merges data into state, and drains the chain
// via the selected RunStrategy (the "runner" option; "chain" if absent or
// unrecognized). For directive work (Directive Path), it validates the
// directive and returns it unchanged as the sole server directive: a
// plain chain Agent has no business logic of its own to apply a directive
// against, so it defers entirely to the runtime.
func (a *Agent) Cmd(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
	if work.Directive != nil {
		if err := directive.Validate(*work.Directive); err != nil {
			return state, nil, err
		}
		return state, []directive.Directive{*work.Directive}, nil
	}

	if len(data) > 0 {
		state = state.Merge(data)
	}
	state = state.EnqueueInstructions(work.Instructions)

	result, err := a.selectStrategy(opts).Run(ctx, state, opts)
	if err != nil {
		var chainErr *Error
		if errors.As(err, &chainErr) {
			return chainErr.State, nil, err
		}
		return state, nil, err
	}

	return result.Final, result.ServerDirectives, nil
}

// selectStrategy reads opts["runner"] and returns the matching
// registered RunStrategy, falling back to the default "chain" Runner when
// the option is absent or names an unregistered strategy.
func (a *Agent) selectStrategy(opts map[string]any) RunStrategy {
	if name, ok := opts["runner"].(string); ok {
		if strategy, found := a.strategies[name]; found {
			return strategy
		}
	}
	return a.runner
}
