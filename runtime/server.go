package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/bus"
	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/kerr"
	"github.com/jidogo/runtime/core/signal"
	"github.com/jidogo/runtime/observability"
	"github.com/jidogo/runtime/orchestrate/config"
)

// Server is the long-lived process serving a single agent: it holds the
// agent's State and status, drains the pending signal queue through the
// executor loop, and emits lifecycle events to the output bus.
//
// All fields that change after construction are guarded by mu. Submit
// additionally holds execMu for its whole call, so the agent state is
// effectively single-threaded: concurrent Submit callers serialize on
// execMu the way concurrent callers of a GenServer serialize on its
// single mailbox, and each call blocks until the whole drain (not just
// the caller's own enqueue) completes. There is no separate consumer
// goroutine to keep alive or shut down.
type Server struct {
	id  string
	cfg config.ServerConfig

	agentImpl agent.Agent
	registry  *agent.Registry // optional: resolves SpawnChild directives

	bus      *bus.Bus
	observer observability.Observer

	execMu sync.Mutex

	mu               sync.Mutex
	status           directive.Status
	pendingSignals   []signal.Signal
	state            agent.State
	serverDirectives []directive.Directive
	children         map[string]agent.Agent
	outputTargets    []string
}

// Option configures a Server at construction.
type Option func(*Server)

// WithRegistry supplies the agent factory registry SpawnChild directives
// are resolved against. Without one, ApplyDirective rejects SpawnChild.
func WithRegistry(r *agent.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// NewServer builds a Server for agentID driving impl, using cfg for its
// queue capacity, chain/workflow/bus sub-configs, and observer selection.
// The server starts in StatusInitializing and transitions to StatusIdle
// before returning, per the status machine's only legal entry edge.
func NewServer(agentID string, impl agent.Agent, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	if agentID == "" {
		return nil, kerr.New(kerr.ValidationError, "agent id must not be empty", nil)
	}
	if impl == nil {
		return nil, kerr.New(kerr.InvalidAction, "agent implementation is nil", nil)
	}

	b, err := bus.New(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("runtime: build bus: %w", err)
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("runtime: resolve observer: %w", err)
	}

	s := &Server{
		id:        agentID,
		cfg:       cfg,
		agentImpl: impl,
		bus:       b,
		observer:  observer,
		status:    directive.StatusInitializing,
		state:     agent.New(),
		children:  make(map[string]agent.Agent),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.transition(directive.StatusIdle); err != nil {
		return nil, fmt.Errorf("runtime: initial transition: %w", err)
	}

	return s, nil
}

// ID returns the agent ID this server was constructed with.
func (s *Server) ID() string { return s.id }

// Status returns the server's current lifecycle status.
func (s *Server) Status() directive.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns a copy of the agent's current State.
func (s *Server) State() agent.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// QueueLength returns the number of signals currently pending.
func (s *Server) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingSignals)
}

// Subscribe registers sink with the server's Output Emitter.
func (s *Server) Subscribe(sink bus.Sink) error {
	return s.bus.Subscribe(sink)
}

// Unsubscribe removes a previously registered sink.
func (s *Server) Unsubscribe(id string) error {
	return s.bus.Unsubscribe(id)
}

// DrainServerDirectives returns and clears the server directives
// accumulated since the last call: the Transition / SpawnChild /
// StopChild / RegisterOutput directives returned by Cmd invocations, plus
// any enqueue_instructions directive the directive path built from
// instructions an agent left pending.
// The runtime never applies these on its own; the owner decides whether
// and when to call ApplyDirective on each.
func (s *Server) DrainServerDirectives() []directive.Directive {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds := s.serverDirectives
	s.serverDirectives = nil
	return ds
}

func (s *Server) recordServerDirectives(ds []directive.Directive) {
	if len(ds) == 0 {
		return
	}
	s.mu.Lock()
	s.serverDirectives = append(s.serverDirectives, ds...)
	s.mu.Unlock()
}

func (s *Server) setState(state agent.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Server) enqueueLocked(sig signal.Signal) {
	s.pendingSignals = append(s.pendingSignals, sig)
}

// enqueueSignal appends sig to the tail of the pending queue without
// triggering a drain: used by the command path to materialize pending
// instructions as fresh command signals, which are drained by the
// current dispatch's own loop, not a re-entrant one.
func (s *Server) enqueueSignal(sig signal.Signal) {
	s.mu.Lock()
	s.enqueueLocked(sig)
	s.mu.Unlock()
}

// transition moves status to "to" if legal, or returns an InvalidState
// error and leaves status unchanged. Callers hold no lock; transition
// takes mu itself.
func (s *Server) transition(to directive.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.status
	if !directive.CanTransition(from, to) {
		return kerr.New(kerr.InvalidState, fmt.Sprintf("cannot transition from %q to %q", from, to), map[string]any{"from": from, "to": to})
	}
	s.status = to
	return nil
}

func (s *Server) emit(ctx context.Context, typ, subject string, payload map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      observability.EventType(typ),
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "runtime.Server",
		Data:      payload,
	})
	_ = s.bus.Publish(ctx, s.id, typ, subject, payload)
}

// newChildID returns a UUIDv7 identifier for a spawned child agent,
// the same ID convention workflow.Handle uses.
func newChildID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PendingSignals returns a snapshot of the queued signals in order.
// Callers that want to preserve queued work across a Stop take this
// snapshot first; Stop itself discards the queue.
func (s *Server) PendingSignals() []signal.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]signal.Signal, len(s.pendingSignals))
	copy(snapshot, s.pendingSignals)
	return snapshot
}

// Stop transitions the server to StatusStopped and discards any queued
// signals. Stopped is terminal: no further signal is dispatched, and
// Submit rejects new work with an InvalidState error. An in-flight
// dispatch is not interrupted; Stop waits for it by taking execMu.
func (s *Server) Stop(ctx context.Context) error {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	if err := s.transition(directive.StatusStopped); err != nil {
		return err
	}

	s.mu.Lock()
	discarded := len(s.pendingSignals)
	s.pendingSignals = nil
	s.mu.Unlock()

	s.emit(ctx, EventTransition, "", map[string]any{"to_status": string(directive.StatusStopped), "discarded_signals": discarded})
	return nil
}
