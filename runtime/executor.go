package runtime

import (
	"context"
	"fmt"

	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
)

// dispatchOutcome classifies how a single dequeued signal's dispatch
// concluded.
type dispatchOutcome int

const (
	dispatchOK dispatchOutcome = iota
	dispatchIgnore
	dispatchError
	dispatchPaused
)

// Submit is the entry point producers call to hand a signal to the
// server. It enqueues sig, then drains the pending queue until it is
// empty or a dispatch fails, blocking the caller for the whole drain.
// A fault in the runtime itself (as opposed to user agent code, which
// dispatch already recovers) surfaces as an InternalServerError rather
// than tearing down the producer.
func (s *Server) Submit(ctx context.Context, sig signal.Signal) (err error) {
	if sig.ID == "" {
		return kerr.New(kerr.InvalidSignalFormat, "signal has no id", nil)
	}
	if verr := signal.ValidateType(sig.Type); verr != nil {
		return kerr.Wrap(kerr.InvalidSignalFormat, "signal type is malformed", verr, map[string]any{"signal_id": sig.ID})
	}

	s.execMu.Lock()
	defer s.execMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = kerr.New(kerr.InternalServerError, fmt.Sprintf("caught fault while processing signal: %v", r), map[string]any{"signal_id": sig.ID})
		}
	}()

	s.mu.Lock()
	if s.cfg.QueueCapacity > 0 && len(s.pendingSignals) >= s.cfg.QueueCapacity {
		s.mu.Unlock()
		return kerr.New(kerr.ValidationError, "pending signal queue is full", map[string]any{"capacity": s.cfg.QueueCapacity})
	}
	s.enqueueLocked(sig)
	s.mu.Unlock()

	return s.drain(ctx)
}

// drain runs the Executor's queue-draining loop. While paused, it does
// nothing observable: the signal(s) already enqueued by Submit stay
// queued in order, untouched, with no transition and no queue.step.*
// event. Re-enqueueing a signal that was never dequeued is a no-op, so
// the per-signal "re-enqueue and succeed" rule collapses into returning
// early here.
func (s *Server) drain(ctx context.Context) error {
	if s.Status() == directive.StatusPaused {
		return nil
	}

	s.mu.Lock()
	queueLen := len(s.pendingSignals)
	s.mu.Unlock()

	s.emit(ctx, EventQueueProcessingStarted, "", map[string]any{"queue_length": queueLen})

	for {
		s.mu.Lock()
		if len(s.pendingSignals) == 0 {
			s.mu.Unlock()
			s.emit(ctx, EventQueueProcessingCompleted, "", nil)
			return nil
		}
		head := s.pendingSignals[0]
		s.pendingSignals = s.pendingSignals[1:]
		s.mu.Unlock()

		outcome, reason, err := s.dispatch(ctx, head)

		switch outcome {
		case dispatchOK:
			s.emit(ctx, EventQueueStepCompleted, head.ID, map[string]any{"signal_id": head.ID, "type": head.Type})
		case dispatchIgnore:
			s.emit(ctx, EventQueueStepIgnored, head.ID, map[string]any{"signal_id": head.ID, "type": head.Type, "reason": reason})
		case dispatchError:
			s.emit(ctx, EventQueueStepFailed, head.ID, map[string]any{"signal_id": head.ID, "type": head.Type, "error": err.Error()})
			s.emit(ctx, EventQueueProcessingFailed, head.ID, map[string]any{"error": err.Error()})
			return err
		case dispatchPaused:
			// The server was paused between dequeues. The signal is back at
			// the head of the queue; stop without step events, the way a
			// drain that started paused would never have begun.
			return nil
		}
	}
}

// dispatch routes sig by kind and runs it through the status gate. Any
// panic raised from the Command/Directive Path (ultimately, from user
// agent code) is recovered and converted to an ExecutionError, and the
// status machine is guaranteed to return to idle on every exit path
// where a transition to running was made.
func (s *Server) dispatch(ctx context.Context, sig signal.Signal) (outcome dispatchOutcome, reason string, err error) {
	kind := sig.Kind()
	if kind == signal.KindUnknown || kind == signal.KindEvent {
		return dispatchIgnore, fmt.Sprintf("unknown_signal_type: %s", sig.Type), nil
	}

	status := s.Status()
	switch status {
	case directive.StatusPaused:
		// Re-enqueue at the head: another signal must not jump the paused
		// one. The drain loop already popped it, so push it back to the
		// front before stopping.
		s.mu.Lock()
		s.pendingSignals = append([]signal.Signal{sig}, s.pendingSignals...)
		s.mu.Unlock()
		return dispatchPaused, "", nil

	case directive.StatusIdle:
		if terr := s.transition(directive.StatusRunning); terr != nil {
			return dispatchError, "", terr
		}
	case directive.StatusRunning:
		// Already running: proceed without a transition.
	default:
		return dispatchError, "", kerr.New(kerr.InvalidState, fmt.Sprintf("signal cannot run in status %q", status), map[string]any{"status": status})
	}

	defer func() {
		if r := recover(); r != nil {
			err = kerr.New(kerr.ExecutionError, fmt.Sprintf("signal execution failed: caught panic: %v", r), map[string]any{"signal_id": sig.ID})
			outcome = dispatchError
		}
		// Always return to idle on any exit path where we entered running.
		_ = s.transition(directive.StatusIdle)
	}()

	switch kind {
	case signal.KindDirective:
		if herr := s.handleDirective(ctx, sig); herr != nil {
			return dispatchError, "", herr
		}
	case signal.KindCommand:
		if herr := s.handleCommand(ctx, sig); herr != nil {
			return dispatchError, "", herr
		}
	}

	return dispatchOK, "", nil
}
