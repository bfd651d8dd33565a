package runtime

import (
	"context"
	"fmt"

	"github.com/jidogo/runtime/agent"
	"github.com/jidogo/runtime/core/directive"
	"github.com/jidogo/runtime/core/kerr"
)

// ApplyDirective interprets one server-scoped directive drained via
// DrainServerDirectives: Transition changes status, SpawnChild and
// StopChild manage the child agent table, and RegisterOutput records an
// output target for the caller's inspection. EnqueueInstructions is not
// applied here and is rejected with a ValidationError; the only one the
// caller ever drains is the one the directive path builds from
// instructions an agent left pending, for the caller to handle itself.
func (s *Server) ApplyDirective(ctx context.Context, d directive.Directive) error {
	if err := directive.Validate(d); err != nil {
		return err
	}

	switch d.Kind {
	case directive.KindTransition:
		if err := s.transition(d.ToStatus); err != nil {
			return err
		}
		s.emit(ctx, EventTransition, "", map[string]any{"to_status": string(d.ToStatus)})
		return nil

	case directive.KindSpawnChild:
		return s.spawnChild(ctx, d)

	case directive.KindStopChild:
		s.mu.Lock()
		_, exists := s.children[d.ChildID]
		delete(s.children, d.ChildID)
		s.mu.Unlock()
		if !exists {
			return kerr.New(kerr.ValidationError, "no such child agent", map[string]any{"child_id": d.ChildID})
		}
		s.emit(ctx, EventStopChild, "", map[string]any{"child_id": d.ChildID})
		return nil

	case directive.KindRegisterOutput:
		s.mu.Lock()
		s.outputTargets = append(s.outputTargets, d.OutputTarget)
		s.mu.Unlock()
		return nil

	default:
		return kerr.New(kerr.ValidationError, fmt.Sprintf("directive kind %q is not a server directive", d.Kind), map[string]any{"kind": d.Kind})
	}
}

func (s *Server) spawnChild(ctx context.Context, d directive.Directive) error {
	if s.registry == nil {
		return kerr.New(kerr.ValidationError, "no agent registry configured for SpawnChild", map[string]any{"child_type": d.ChildType})
	}

	child, err := s.registry.Get(d.ChildType, d.ChildConfig)
	if err != nil {
		return fmt.Errorf("runtime: spawn child: %w", err)
	}

	childID := newChildID()

	s.mu.Lock()
	s.children[childID] = child
	s.mu.Unlock()

	s.emit(ctx, EventSpawnChild, "", map[string]any{"child_id": childID, "child_type": d.ChildType})
	return nil
}

// Children returns the IDs of every spawned child agent currently tracked.
func (s *Server) Children() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.children))
	for id := range s.children {
		ids = append(ids, id)
	}
	return ids
}

// ChildAgent returns the child agent registered under id, if any.
func (s *Server) ChildAgent(id string) (agent.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.children[id]
	return a, ok
}

// OutputTargets returns the RegisterOutput targets recorded so far.
func (s *Server) OutputTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.outputTargets))
	copy(out, s.outputTargets)
	return out
}
