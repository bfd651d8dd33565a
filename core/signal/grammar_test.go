package signal

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		typ  string
		want Kind
	}{
		{"command", "jido.agent.cmd.run", KindCommand},
		{"directive", "jido.agent.cmd.directive.transition", KindDirective},
		{"event", "jido.agent.event.queue.processing.started", KindEvent},
		{"event multi segment", "jido.agent.event.cmd.success", KindEvent},
		{"unrecognized", "some.other.type", KindUnknown},
		{"bare cmd prefix", "jido.agent.cmd.", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.typ); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestValidateType(t *testing.T) {
	valid := []string{
		"jido.agent.cmd.run",
		"jido.agent.cmd.directive.transition",
		"jido.agent.event.queue.processing.started",
	}
	for _, typ := range valid {
		if err := ValidateType(typ); err != nil {
			t.Errorf("ValidateType(%q) = %v, want nil", typ, err)
		}
	}

	invalid := []string{
		"",
		"jido.agent.cmd.",
		"jido.agent.event.",
		"not.a.signal.type",
		"jido.agent.event..double",
		"jido.agent.cmd.run.extra",
		"jido.agent.cmd.directive.transition.extra",
	}
	for _, typ := range invalid {
		if err := ValidateType(typ); err == nil {
			t.Errorf("ValidateType(%q) = nil, want error", typ)
		}
	}
}

func TestEventSource(t *testing.T) {
	if got, want := EventSource("agent-1"), "jido://agent/agent-1"; got != want {
		t.Errorf("EventSource() = %q, want %q", got, want)
	}
}
