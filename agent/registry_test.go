package agent

import (
	"context"
	"testing"

	"github.com/jidogo/runtime/core/directive"
)

type fakeAgent struct {
	id string
}

func (a *fakeAgent) Cmd(ctx context.Context, state State, work Work, data, opts map[string]any) (State, []directive.Directive, error) {
	return state, nil, nil
}

func TestRegistryLazyInstantiation(t *testing.T) {
	r := NewRegistry()
	calls := 0

	err := r.Register("worker", func(config map[string]any) (Agent, error) {
		calls++
		return &fakeAgent{id: config["id"].(string)}, nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	a1, err := r.Get("worker", map[string]any{"id": "w1"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	a2, err := r.Get("worker", map[string]any{"id": "w1"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if a1 != a2 {
		t.Error("Get() did not return the cached instance on second call")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("missing", nil); err == nil {
		t.Fatal("Get() on unregistered type = nil error, want error")
	}
}

func TestRegistryReplaceInvalidatesCache(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("worker", func(config map[string]any) (Agent, error) {
		return &fakeAgent{id: "v1"}, nil
	})

	a1, _ := r.Get("worker", nil)

	if err := r.Replace("worker", func(config map[string]any) (Agent, error) {
		return &fakeAgent{id: "v2"}, nil
	}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	a2, _ := r.Get("worker", nil)

	if a1.(*fakeAgent).id == a2.(*fakeAgent).id {
		t.Error("Replace() did not invalidate the cached instance")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("b", func(config map[string]any) (Agent, error) { return &fakeAgent{}, nil })
	_ = r.Register("a", func(config map[string]any) (Agent, error) { return &fakeAgent{}, nil })

	names := r.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List() = %v, want [a b]", names)
	}
}
