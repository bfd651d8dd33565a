package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
)

// agentCompensationTimeout is the fallback deadline for an agent's own
// OnError when its metadata does not supply one.
const agentCompensationTimeout = 5 * time.Second

// handleCommand implements the command path: invoke the driven agent
// with the signal's instructions, emit cmd.success(.pending) or
// cmd.failed, and materialize any instructions the agent left pending
// into fresh command signals at the tail of the queue.
func (s *Server) handleCommand(ctx context.Context, sig signal.Signal) error {
	work := agent.FromInstructions(sig.Instructions)
	data := sig.DataMap()
	opts := sig.OptsMap()

	if pv, ok := s.agentImpl.(agent.ParamValidator); ok {
		if err := pv.ValidateParams(data); err != nil {
			return kerr.Wrap(kerr.ValidationError, "signal data failed agent validation", err, map[string]any{"signal_id": sig.ID})
		}
	}

	state := s.State()

	newState, directives, err := s.agentImpl.Cmd(ctx, state, work, data, opts)
	if err != nil {
		err = s.compensateAgent(ctx, data, err)
		s.emit(ctx, EventCmdFailed, sig.ID, map[string]any{"signal_id": sig.ID, "error": err.Error()})
		return err
	}

	pending, drained := newState.DrainPendingInstructions()

	s.setState(drained)
	s.recordServerDirectives(directives)

	if len(pending) > 0 {
		s.emit(ctx, EventCmdSuccessPending, sig.ID, map[string]any{"signal_id": sig.ID, "pending_count": len(pending)})
		for _, instr := range pending {
			s.enqueueSignal(signal.ToCommandSignal(s.id, instr))
		}
		return nil
	}

	s.emit(ctx, EventCmdSuccess, sig.ID, map[string]any{"signal_id": sig.ID})
	return nil
}

// compensateAgent gives the driven agent a chance to undo side effects of
// a failed Cmd. If the agent does not support compensation, cmdErr is
// returned unchanged; otherwise the result is a CompensationError wrapping
// cmdErr with the compensation outcome, mirroring how the workflow
// executor compensates a failed action.
func (s *Server) compensateAgent(ctx context.Context, data map[string]any, cmdErr error) error {
	meta := agent.MetadataOf(s.agentImpl)
	if !meta.Compensation.Enabled {
		return cmdErr
	}
	compensator, ok := s.agentImpl.(agent.Compensator)
	if !ok {
		return cmdErr
	}

	timeout := meta.Compensation.Timeout
	if timeout <= 0 {
		timeout = agentCompensationTimeout
	}

	compCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type compResult struct {
		result map[string]any
		err    error
	}
	resultCh := make(chan compResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- compResult{err: fmt.Errorf("caught panic: %v", r)}
			}
		}()
		result, err := compensator.OnError(compCtx, data, cmdErr, nil)
		resultCh <- compResult{result: result, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return kerr.Wrap(kerr.CompensationError, "agent compensation failed", cmdErr, map[string]any{
				"compensated":        false,
				"compensation_error": res.err.Error(),
			})
		}
		return kerr.Wrap(kerr.CompensationError, "agent compensated", cmdErr, map[string]any{
			"compensated":         true,
			"compensation_result": res.result,
		})
	case <-compCtx.Done():
		return kerr.Wrap(kerr.CompensationError, "agent compensation timed out", cmdErr, map[string]any{
			"compensated":        false,
			"compensation_error": fmt.Sprintf("compensation timed out after %dms", timeout.Milliseconds()),
		})
	}
}
