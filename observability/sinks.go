package observability

import (
	"context"
	"log/slog"
)

// NoOpObserver drops every event. It is the zero-cost choice for hosts
// that configure no telemetry.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// SlogObserver writes events to a slog.Logger: the event type becomes
// the message, the level maps via SlogLevel, and Source plus the Data
// keys become attributes.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver returns a SlogObserver writing to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	args := make([]any, 0, 2*(len(event.Data)+1))
	args = append(args, "source", event.Source)
	for k, v := range event.Data {
		args = append(args, k, v)
	}
	o.logger.Log(ctx, event.Level.SlogLevel(), string(event.Type), args...)
}

// MultiObserver forwards each event to every wrapped observer in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver combines observers into one, skipping nil entries.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, obs := range observers {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
	}
	return m
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}
