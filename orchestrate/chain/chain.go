// Package chain implements the instruction chain runner: it drains an
// agent's pending instructions, runs each through the workflow executor
// in order, merges results back into state, and stops at the first
// error.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/jidogo/runtime/action"
	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
	"github.com/jidogo/runtime/observability"
	"github.com/jidogo/runtime/orchestrate/config"
	"github.com/jidogo/runtime/orchestrate/workflow"
)

// Result is what a completed Run produces.
type Result struct {
	Final            agent.State
	Intermediate     []agent.State
	Steps            int
	ServerDirectives []directive.Directive
}

// Runner drains and executes an agent's pending instructions one at a time
// against a shared Workflow Executor.
type Runner struct {
	cfg      config.ChainConfig
	executor *workflow.Executor
	observer observability.Observer
}

// New builds a Runner from cfg, resolving cfg.Observer via the observability
// registry. executor is the Workflow Executor each instruction is run
// through.
func New(cfg config.ChainConfig, executor *workflow.Executor) (*Runner, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("chain: resolve observer: %w", err)
	}
	return &Runner{cfg: cfg, executor: executor, observer: observer}, nil
}

// Run drains state's pending instructions and runs each in order. On the
// first error it stops immediately, discarding any remaining instructions,
// and returns an *Error describing which step failed and the state as of
// the last successful step. opts["apply_state"] controls whether each
// instruction's result map is merged into state.Data (default true);
// regardless, state.Result always reflects the last instruction's outcome.
// opts["context"], if a map, is merged into every instruction's exec
// context ahead of the instruction's own Context and the live state.
// opts["strict_validation"] is forwarded to each instruction's Workflow
// Executor call as the "strict_validation" workflow option.
func (r *Runner) Run(ctx context.Context, state agent.State, opts map[string]any) (Result, error) {
	pending, state := state.DrainPendingInstructions()

	r.observer.OnEvent(ctx, observability.Event{
		Type:      EventStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "chain.Run",
		Data:      map[string]any{"instruction_count": len(pending)},
	})

	if len(pending) == 0 {
		r.observer.OnEvent(ctx, observability.Event{
			Type:      EventComplete,
			Level:     observability.LevelInfo,
			Timestamp: time.Now(),
			Source:    "chain.Run",
			Data:      map[string]any{"steps": 0, "error": false},
		})
		return Result{Final: state}, nil
	}

	applyState := applyStateOpt(opts)

	var intermediate []agent.State
	var directives []directive.Directive

	for i, instr := range pending {
		r.observer.OnEvent(ctx, observability.Event{
			Type:      EventStep,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "chain.Run",
			Data:      map[string]any{"step": i, "action": instr.Action},
		})

		outcome, err := runInstruction(ctx, r.executor, state, instr, opts)
		if err != nil {
			r.complete(ctx, len(pending), true)
			return Result{Final: state, Intermediate: intermediate, Steps: i}, &Error{StepIndex: i, Action: instr.Action, State: state, Err: err}
		}

		if outcome.Directive != nil {
			directives = append(directives, *outcome.Directive)
		}

		if applyState {
			state = state.Merge(outcome.Result)
		}
		state = state.WithResult(outcome.Result)

		if r.cfg.CaptureIntermediate {
			intermediate = append(intermediate, state)
		}
	}

	agentDirectives, serverDirectives := directive.Split(directives)
	for _, d := range agentDirectives {
		if d.Kind == directive.KindEnqueueInstructions {
			state = state.EnqueueInstructions(d.Instructions)
		}
	}

	r.complete(ctx, len(pending), false)

	return Result{
		Final:            state,
		Intermediate:     intermediate,
		Steps:            len(pending),
		ServerDirectives: serverDirectives,
	}, nil
}

func (r *Runner) complete(ctx context.Context, steps int, errored bool) {
	level := observability.LevelInfo
	if errored {
		level = observability.LevelWarning
	}
	r.observer.OnEvent(ctx, observability.Event{
		Type:      EventComplete,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "chain.Run",
		Data:      map[string]any{"steps": steps, "error": errored},
	})
}

// applyStateOpt reads the "apply_state" signal option, defaulting to
// true.
func applyStateOpt(opts map[string]any) bool {
	applyState := true
	if v, ok := opts["apply_state"]; ok {
		if b, ok := v.(bool); ok {
			applyState = b
		}
	}
	return applyState
}

// runInstruction resolves instr's registered action, builds its exec
// context and workflow opts from state and the signal-level opts, and
// runs it through executor. It is shared by Runner and SingleRunner so
// both strategies execute an individual instruction identically.
func runInstruction(ctx context.Context, executor *workflow.Executor, state agent.State, instr signal.Instruction, opts map[string]any) (action.Outcome, error) {
	act, found := action.Get(instr.Action)
	if !found {
		return action.Outcome{}, kerr.New(kerr.InvalidAction, fmt.Sprintf("action %q is not registered", instr.Action), nil)
	}

	merged := signal.MergeMaps(state.Data, instr.ParamsMap())
	execContext := buildExecContext(instr, state, opts)
	workflowOpts := mergeWorkflowOpts(instr.OptsMap(), opts)

	return executor.Run(ctx, act, merged, execContext, workflowOpts)
}

// buildExecContext layers an instruction's exec context from, in
// increasing priority: the command signal's opts["context"] map, the
// instruction's own Context, and finally the live agent state, which
// always wins so an action can never shadow "state".
func buildExecContext(instr signal.Instruction, state agent.State, opts map[string]any) map[string]any {
	base := map[string]any{}
	if cm, ok := opts["context"].(map[string]any); ok {
		base = signal.MergeMaps(base, cm)
	}
	base = signal.MergeMaps(base, instr.ContextMap())
	return signal.MergeMaps(base, map[string]any{"state": state.Data})
}

// mergeWorkflowOpts combines an instruction's own Opts (timeout,
// max_retries, backoff, telemetry) with the command signal's
// strict_validation option, which instructions never carry themselves
// but which every instruction in the chain should honor.
func mergeWorkflowOpts(instrOpts, signalOpts map[string]any) map[string]any {
	merged := signal.MergeMaps(map[string]any{}, instrOpts)
	if v, ok := signalOpts["strict_validation"]; ok {
		merged["strict_validation"] = v
	}
	return merged
}
