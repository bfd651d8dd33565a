package bus

import (
	"context"

	"github.com/jidogo/runtime/core/signal"
)

// Sink receives delivered event Signals. Deliver is called sequentially
// for a given Sink, in publish order, from a single goroutine dedicated to
// that subscriber; a slow Sink only ever delays its own deliveries, never
// another subscriber's.
type Sink interface {
	ID() string
	Deliver(ctx context.Context, sig signal.Signal)
}

// SinkFunc adapts a plain function into a Sink.
type SinkFunc struct {
	SinkID string
	Fn     func(ctx context.Context, sig signal.Signal)
}

func (f SinkFunc) ID() string { return f.SinkID }

func (f SinkFunc) Deliver(ctx context.Context, sig signal.Signal) {
	f.Fn(ctx, sig)
}
