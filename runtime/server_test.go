package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jidogo/runtime/action"
	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/bus"
	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
	"github.com/jidogo/runtime/orchestrate/chain"
	"github.com/jidogo/runtime/orchestrate/config"
	"github.com/jidogo/runtime/orchestrate/workflow"
)

// funcAgent adapts a plain function into agent.Agent for tests that need
// full control over Cmd's return value without routing through the
// chain/workflow machinery.
type funcAgent struct {
	cmd func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error)
}

func (f funcAgent) Cmd(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
	return f.cmd(ctx, state, work, data, opts)
}

type captureSink struct {
	id string
	ch chan string
}

func newCaptureSink(id string) *captureSink {
	return &captureSink{id: id, ch: make(chan string, 64)}
}

func (c *captureSink) ID() string { return c.id }

func (c *captureSink) Deliver(ctx context.Context, sig signal.Signal) {
	c.ch <- sig.Type
}

func (c *captureSink) expect(t *testing.T, want ...string) {
	t.Helper()
	for _, w := range want {
		select {
		case got := <-c.ch:
			if got != w {
				t.Fatalf("event = %q, want %q", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %q", w)
		}
	}
}

func (c *captureSink) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-c.ch:
		t.Fatalf("unexpected event %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func mustServer(t *testing.T, impl agent.Agent) *Server {
	t.Helper()
	s, err := NewServer("agent-1", impl, config.DefaultServerConfig())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

// TestHappyCommand runs a command signal whose instructions go through
// chain.Agent and the action registry end to end.
func TestHappyCommand(t *testing.T) {
	action.Unregister("add")
	defer action.Unregister("add")
	_ = action.Register(actionFunc{name: "add", run: func(ctx context.Context, params, execContext map[string]any) (action.Outcome, error) {
		st, _ := execContext["state"].(map[string]any)
		old, _ := st["x"].(int)
		return action.Outcome{Result: map[string]any{"x": old + 1}}, nil
	}})

	exec, err := workflow.New(config.DefaultWorkflowConfig())
	if err != nil {
		t.Fatalf("workflow.New() error = %v", err)
	}
	runner, err := chain.New(config.DefaultChainConfig(), exec)
	if err != nil {
		t.Fatalf("chain.New() error = %v", err)
	}

	s := mustServer(t, chain.NewAgent(runner))
	s.setState(agent.New().Set("x", 0))

	sink := newCaptureSink("sub-1")
	if err := s.Subscribe(sink); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	instr, err := signal.NewInstruction("add", map[string]any{"x": 1.0}, nil, nil)
	if err != nil {
		t.Fatalf("NewInstruction() error = %v", err)
	}
	sig, err := signal.New("agent-1", "jido.agent.cmd.run", "run", nil, []signal.Instruction{instr}, nil)
	if err != nil {
		t.Fatalf("signal.New() error = %v", err)
	}

	if err := s.Submit(context.Background(), sig); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got := s.State().Data["x"]; got != 1 {
		t.Errorf("State().Data[x] = %v, want 1", got)
	}
	if s.Status() != directive.StatusIdle {
		t.Errorf("Status() = %v, want idle", s.Status())
	}

	sink.expect(t,
		EventQueueProcessingStarted,
		EventCmdSuccess,
		EventQueueStepCompleted,
		EventQueueProcessingCompleted,
	)
}

type actionFunc struct {
	name string
	run  func(ctx context.Context, params, execContext map[string]any) (action.Outcome, error)
}

func (a actionFunc) Name() string { return a.name }
func (a actionFunc) Run(ctx context.Context, params, execContext map[string]any) (action.Outcome, error) {
	return a.run(ctx, params, execContext)
}

// TestPausedRequeue submits command signals to a paused server and
// checks they stay queued in order with no events until resume.
func TestPausedRequeue(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		return state, nil, nil
	}})

	if err := s.transition(directive.StatusPaused); err != nil {
		t.Fatalf("transition(paused) error = %v", err)
	}

	sink := newCaptureSink("sub-1")
	_ = s.Subscribe(sink)

	sigA, _ := signal.New("agent-1", "jido.agent.cmd.run", "a", nil, nil, nil)
	sigB, _ := signal.New("agent-1", "jido.agent.cmd.run", "b", nil, nil, nil)

	if err := s.Submit(context.Background(), sigA); err != nil {
		t.Fatalf("Submit(A) error = %v", err)
	}
	if err := s.Submit(context.Background(), sigB); err != nil {
		t.Fatalf("Submit(B) error = %v", err)
	}

	sink.expectNone(t)

	if s.QueueLength() != 2 {
		t.Fatalf("QueueLength() = %d, want 2", s.QueueLength())
	}

	if err := s.transition(directive.StatusIdle); err != nil {
		t.Fatalf("transition(idle) error = %v", err)
	}

	if err := s.drain(context.Background()); err != nil {
		t.Fatalf("drain() error = %v", err)
	}

	if s.QueueLength() != 0 {
		t.Errorf("QueueLength() = %d, want 0 after resuming", s.QueueLength())
	}
}

// TestChainWithPendingInstructions checks that instructions an agent
// leaves pending materialize as fresh command signals and drain within
// the same Submit call.
func TestChainWithPendingInstructions(t *testing.T) {
	p1, _ := signal.NewInstruction("p1", nil, nil, nil)
	p2, _ := signal.NewInstruction("p2", nil, nil, nil)

	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		// Only the original signal (carrying no instructions of its own)
		// fans out p1/p2; the materialized p1/p2 command signals that
		// come back through Cmd must not re-enqueue, or draining would
		// never terminate.
		if len(work.Instructions) == 0 {
			next := state.EnqueueInstructions([]signal.Instruction{p1, p2})
			return next, nil, nil
		}
		return state, nil, nil
	}})

	sink := newCaptureSink("sub-1")
	_ = s.Subscribe(sink)

	sig, _ := signal.New("agent-1", "jido.agent.cmd.run", "run", nil, nil, nil)
	if err := s.Submit(context.Background(), sig); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	sink.expect(t, EventQueueProcessingStarted, EventCmdSuccessPending, EventQueueStepCompleted)
	// p1 and p2 materialize at the tail and are drained within the same
	// call, each producing its own cmd.success + queue.step.completed.
	sink.expect(t, EventCmdSuccess, EventQueueStepCompleted)
	sink.expect(t, EventCmdSuccess, EventQueueStepCompleted)
	sink.expect(t, EventQueueProcessingCompleted)

	if len(s.State().PendingInstructions) != 0 {
		t.Errorf("State().PendingInstructions = %v, want empty", s.State().PendingInstructions)
	}
	if s.QueueLength() != 0 {
		t.Fatalf("QueueLength() = %d, want 0 (p1, p2 drained within the same Submit call)", s.QueueLength())
	}
}

func TestDispatchIgnoresUnknownSignalType(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		t.Fatal("Cmd should not be invoked for an event signal")
		return state, nil, nil
	}})

	sink := newCaptureSink("sub-1")
	_ = s.Subscribe(sink)

	sig, _ := signal.New("agent-1", "jido.agent.event.something.happened", "evt", nil, nil, nil)
	if err := s.Submit(context.Background(), sig); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	sink.expect(t, EventQueueProcessingStarted, EventQueueStepIgnored, EventQueueProcessingCompleted)
	if s.Status() != directive.StatusIdle {
		t.Errorf("Status() = %v, want idle (ignored signals never transition)", s.Status())
	}
}

func TestQueuePreservedOnStepFailure(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		return state, nil, errors.New("boom")
	}})

	sigA, _ := signal.New("agent-1", "jido.agent.cmd.run", "a", nil, nil, nil)
	sigB, _ := signal.New("agent-1", "jido.agent.cmd.run", "b", nil, nil, nil)

	s.mu.Lock()
	s.pendingSignals = []signal.Signal{sigA, sigB}
	s.mu.Unlock()

	if err := s.drain(context.Background()); err == nil {
		t.Fatal("drain() error = nil, want error")
	}

	if s.QueueLength() != 1 {
		t.Errorf("QueueLength() = %d, want 1 (B preserved after A failed)", s.QueueLength())
	}
	if s.Status() != directive.StatusIdle {
		t.Errorf("Status() = %v, want idle (failure isolation restores status)", s.Status())
	}
}

func TestInvalidStateRejectsDispatch(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		return state, nil, nil
	}})

	if err := s.transition(directive.StatusStopped); err != nil {
		t.Fatalf("transition(stopped) error = %v", err)
	}

	sig, _ := signal.New("agent-1", "jido.agent.cmd.run", "run", nil, nil, nil)
	err := s.Submit(context.Background(), sig)
	if err == nil {
		t.Fatal("Submit() error = nil, want invalid_state error")
	}
	if !kerr.Is(err, kerr.InvalidState) {
		t.Errorf("error = %v, want kerr.InvalidState", err)
	}
}

func TestDirectivePathReturnsServerDirectives(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		if work.Directive == nil {
			t.Fatal("expected directive work")
		}
		return state, []directive.Directive{*work.Directive}, nil
	}})

	d := directive.Directive{Kind: directive.KindSpawnChild, ChildType: "worker"}
	sig, err := signal.NewDirectiveSignal("agent-1", "spawn_child", d)
	if err != nil {
		t.Fatalf("NewDirectiveSignal() error = %v", err)
	}

	if err := s.Submit(context.Background(), sig); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got := s.DrainServerDirectives()
	if len(got) != 1 || got[0].Kind != directive.KindSpawnChild {
		t.Fatalf("DrainServerDirectives() = %+v, want one spawn_child directive", got)
	}
}

func TestDirectivePathDrainsPendingIntoServerDirectives(t *testing.T) {
	p1, _ := signal.NewInstruction("p1", nil, nil, nil)

	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		if work.Directive == nil {
			t.Fatal("expected directive work")
		}
		next := state.EnqueueInstructions([]signal.Instruction{p1})
		return next, nil, nil
	}})

	d := directive.Directive{Kind: directive.KindTransition, ToStatus: directive.StatusPaused}
	sig, err := signal.NewDirectiveSignal("agent-1", "transition", d)
	if err != nil {
		t.Fatalf("NewDirectiveSignal() error = %v", err)
	}

	if err := s.Submit(context.Background(), sig); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(s.State().PendingInstructions) != 0 {
		t.Errorf("State().PendingInstructions = %v, want empty after a directive signal", s.State().PendingInstructions)
	}
	if s.QueueLength() != 0 {
		t.Errorf("QueueLength() = %d, want 0 (directive-path instructions never become command signals)", s.QueueLength())
	}

	got := s.DrainServerDirectives()
	if len(got) != 1 || got[0].Kind != directive.KindEnqueueInstructions {
		t.Fatalf("DrainServerDirectives() = %+v, want one enqueue_instructions directive", got)
	}
	if len(got[0].Instructions) != 1 || got[0].Instructions[0].Action != "p1" {
		t.Errorf("Instructions = %v, want [p1]", got[0].Instructions)
	}
}

func TestApplyDirectiveSpawnAndStopChild(t *testing.T) {
	registry := agent.NewRegistry()
	_ = registry.Register("worker", func(config map[string]any) (agent.Agent, error) {
		return funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
			return state, nil, nil
		}}, nil
	})

	s, err := NewServer("agent-1", funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		return state, nil, nil
	}}, config.DefaultServerConfig(), WithRegistry(registry))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	spawn := directive.Directive{Kind: directive.KindSpawnChild, ChildType: "worker"}
	if err := s.ApplyDirective(context.Background(), spawn); err != nil {
		t.Fatalf("ApplyDirective(spawn) error = %v", err)
	}

	children := s.Children()
	if len(children) != 1 {
		t.Fatalf("Children() = %v, want 1", children)
	}

	stop := directive.Directive{Kind: directive.KindStopChild, ChildID: children[0]}
	if err := s.ApplyDirective(context.Background(), stop); err != nil {
		t.Fatalf("ApplyDirective(stop) error = %v", err)
	}
	if len(s.Children()) != 0 {
		t.Errorf("Children() = %v, want none after stop", s.Children())
	}
}

// compensatingAgent wraps funcAgent with an OnError and metadata enabling
// compensation.
type compensatingAgent struct {
	funcAgent
	meta    agent.Metadata
	onError func(ctx context.Context, params map[string]any, cause error, execContext map[string]any) (map[string]any, error)
}

func (a compensatingAgent) Metadata() agent.Metadata { return a.meta }

func (a compensatingAgent) OnError(ctx context.Context, params map[string]any, cause error, execContext map[string]any) (map[string]any, error) {
	return a.onError(ctx, params, cause, execContext)
}

func TestCommandFailureRunsAgentCompensation(t *testing.T) {
	impl := compensatingAgent{
		funcAgent: funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
			return state, nil, errors.New("boom")
		}},
		meta: agent.Metadata{Compensation: agent.CompensationMetadata{Enabled: true, Timeout: time.Second}},
		onError: func(ctx context.Context, params map[string]any, cause error, execContext map[string]any) (map[string]any, error) {
			return map[string]any{"undone": true}, nil
		},
	}

	s := mustServer(t, impl)

	sig, _ := signal.New("agent-1", "jido.agent.cmd.run", "run", nil, nil, nil)
	err := s.Submit(context.Background(), sig)
	if !kerr.Is(err, kerr.CompensationError) {
		t.Fatalf("Submit() error = %v, want CompensationError", err)
	}

	var kErr *kerr.Error
	if !errors.As(err, &kErr) {
		t.Fatalf("Submit() error = %v, want *kerr.Error", err)
	}
	if kErr.Detail["compensated"] != true {
		t.Errorf("Detail[compensated] = %v, want true", kErr.Detail["compensated"])
	}
}

func TestStopDiscardsQueuedSignals(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		return state, nil, nil
	}})

	sigA, _ := signal.New("agent-1", "jido.agent.cmd.run", "a", nil, nil, nil)
	sigB, _ := signal.New("agent-1", "jido.agent.cmd.run", "b", nil, nil, nil)

	s.mu.Lock()
	s.pendingSignals = []signal.Signal{sigA, sigB}
	s.mu.Unlock()

	snapshot := s.PendingSignals()
	if len(snapshot) != 2 {
		t.Fatalf("PendingSignals() = %d signals, want 2", len(snapshot))
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.Status() != directive.StatusStopped {
		t.Errorf("Status() = %v, want stopped", s.Status())
	}
	if s.QueueLength() != 0 {
		t.Errorf("QueueLength() = %d, want 0 after Stop", s.QueueLength())
	}

	sigC, _ := signal.New("agent-1", "jido.agent.cmd.run", "c", nil, nil, nil)
	if err := s.Submit(context.Background(), sigC); err == nil {
		t.Error("Submit() after Stop error = nil, want invalid_state error")
	}
}

func TestSubmitRejectsMalformedSignal(t *testing.T) {
	s := mustServer(t, funcAgent{cmd: func(ctx context.Context, state agent.State, work agent.Work, data, opts map[string]any) (agent.State, []directive.Directive, error) {
		return state, nil, nil
	}})

	err := s.Submit(context.Background(), signal.Signal{Type: "jido.agent.cmd.run"})
	if !kerr.Is(err, kerr.InvalidSignalFormat) {
		t.Errorf("Submit() with empty id: error = %v, want InvalidSignalFormat", err)
	}

	err = s.Submit(context.Background(), signal.Signal{ID: "x", Type: "not.a.signal"})
	if !kerr.Is(err, kerr.InvalidSignalFormat) {
		t.Errorf("Submit() with bad type: error = %v, want InvalidSignalFormat", err)
	}

	if s.QueueLength() != 0 {
		t.Errorf("QueueLength() = %d, want 0 (rejected signals never enqueue)", s.QueueLength())
	}
}

var _ bus.Sink = (*captureSink)(nil)
