package runtime

import (
	"context"

	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
)

// handleDirective implements the directive path: extract the Directive
// carried by sig, invoke the driven agent with it, apply the resulting
// state, and record any directives the agent returns as server
// directives. Unlike the command path, directive-path results are never
// converted into new command signals: instructions the agent leaves
// pending are drained out of its state and handed back to the caller as
// an enqueue_instructions server directive instead, so the agent's
// instruction queue is still empty when the signal completes.
func (s *Server) handleDirective(ctx context.Context, sig signal.Signal) error {
	if sig.Directive == nil {
		return kerr.New(kerr.InvalidDirective, "signal carries no directive", map[string]any{"signal_id": sig.ID})
	}

	d, ok := sig.Directive.(directive.Directive)
	if !ok {
		return kerr.New(kerr.InvalidDirective, "signal.Directive is not a directive.Directive", map[string]any{"signal_id": sig.ID})
	}

	if err := directive.Validate(d); err != nil {
		return err
	}

	work := agent.FromDirective(d)
	state := s.State()

	newState, directives, err := s.agentImpl.Cmd(ctx, state, work, map[string]any{}, nil)
	if err != nil {
		s.emit(ctx, EventCmdFailed, sig.ID, map[string]any{"signal_id": sig.ID, "error": err.Error()})
		return err
	}

	pending, drained := newState.DrainPendingInstructions()

	s.setState(drained)
	if len(pending) > 0 {
		directives = append(directives, directive.Directive{Kind: directive.KindEnqueueInstructions, Instructions: pending})
	}
	s.recordServerDirectives(directives)
	s.emit(ctx, EventCmdSuccess, sig.ID, map[string]any{"signal_id": sig.ID})
	return nil
}
