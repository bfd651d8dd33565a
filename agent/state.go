package agent

import (
	"maps"

	"github.com/jidogo/runtime/core/signal"
)

// State is the immutable value an Agent carries: its own state mapping, the
// result of its last Cmd invocation, and its outbound queue of pending
// instructions. Modifications return a new State; the original is left
// untouched.
type State struct {
	Data                map[string]any
	Result              map[string]any
	PendingInstructions []signal.Instruction
}

// New returns an empty State.
func New() State {
	return State{
		Data:   make(map[string]any),
		Result: make(map[string]any),
	}
}

// Clone returns an independent shallow copy of s.
func (s State) Clone() State {
	instructions := make([]signal.Instruction, len(s.PendingInstructions))
	copy(instructions, s.PendingInstructions)

	return State{
		Data:                maps.Clone(s.Data),
		Result:              maps.Clone(s.Result),
		PendingInstructions: instructions,
	}
}

// Get retrieves a value from Data by key.
func (s State) Get(key string) (any, bool) {
	val, exists := s.Data[key]
	return val, exists
}

// Set returns a new State with key set to value in Data.
func (s State) Set(key string, value any) State {
	next := s.Clone()
	if next.Data == nil {
		next.Data = make(map[string]any)
	}
	next.Data[key] = value
	return next
}

// Merge returns a new State whose Data is s.Data overlaid with overrides,
// per the Chain Runner's "newState = state ∪ resultMap" step.
func (s State) Merge(overrides map[string]any) State {
	next := s.Clone()
	if next.Data == nil {
		next.Data = make(map[string]any)
	}
	maps.Copy(next.Data, overrides)
	return next
}

// WithResult returns a new State with Result replaced.
func (s State) WithResult(result map[string]any) State {
	next := s.Clone()
	next.Result = result
	return next
}

// EnqueueInstructions returns a new State with instructions appended to
// PendingInstructions.
func (s State) EnqueueInstructions(instructions []signal.Instruction) State {
	next := s.Clone()
	next.PendingInstructions = append(next.PendingInstructions, instructions...)
	return next
}

// DrainPendingInstructions returns the queued instructions together with a
// new State whose PendingInstructions is empty, per the invariant that the
// agent's instruction queue is strictly an output of Cmd, never carried
// across signals.
func (s State) DrainPendingInstructions() ([]signal.Instruction, State) {
	pending := s.PendingInstructions
	next := s.Clone()
	next.PendingInstructions = nil
	return pending, next
}
