package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jidogo/runtime/core/signal"
	"github.com/jidogo/runtime/observability"
	"github.com/jidogo/runtime/orchestrate/config"
)

type subscription struct {
	sink   Sink
	ch     chan signal.Signal
	cancel context.CancelFunc
}

// Bus is the Output Emitter owned by a single agent's server: it turns
// domain events into Signals and fans them out to subscribers, never
// blocking the publisher beyond the configured drop policy.
type Bus struct {
	cfg      config.BusConfig
	observer observability.Observer

	mu   sync.RWMutex
	subs map[string]*subscription

	metrics metrics
}

// New builds a Bus from cfg, resolving cfg.Observer via the observability
// registry.
func New(cfg config.BusConfig) (*Bus, error) {
	if cfg.Logger == nil {
		cfg.Logger = config.DefaultBusConfig().Logger
	}
	if cfg.Observer == "" {
		cfg.Observer = config.DefaultBusConfig().Observer
	}
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("bus: resolve observer: %w", err)
	}
	return &Bus{
		cfg:      cfg,
		observer: observer,
		subs:     make(map[string]*subscription),
	}, nil
}

// Subscribe registers sink to receive every event Publish emits from this
// point on. Each subscriber gets its own bounded channel and delivery
// goroutine, so one slow subscriber cannot delay another.
func (b *Bus) Subscribe(sink Sink) error {
	id := sink.ID()
	if id == "" {
		return ErrEmptySubscriberID
	}

	b.mu.Lock()
	if _, exists := b.subs[id]; exists {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSubscriberExists, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		sink:   sink,
		ch:     make(chan signal.Signal, b.cfg.SubscriberBufferSize),
		cancel: cancel,
	}
	b.subs[id] = sub
	b.mu.Unlock()

	b.metrics.subscribers.Add(1)
	go b.deliverLoop(ctx, sub)

	b.observer.OnEvent(ctx, observability.Event{
		Type:      EventSubscribe,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "bus.Subscribe",
		Data:      map[string]any{"subscriber": id},
	})

	return nil
}

// Unsubscribe stops delivery to id and releases its channel. Events already
// queued for id are discarded.
func (b *Bus) Unsubscribe(id string) error {
	b.mu.Lock()
	sub, exists := b.subs[id]
	if !exists {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSubscriberNotFound, id)
	}
	delete(b.subs, id)
	b.mu.Unlock()

	sub.cancel()
	b.metrics.subscribers.Add(-1)

	b.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventUnsubscribe,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "bus.Unsubscribe",
		Data:      map[string]any{"subscriber": id},
	})

	return nil
}

// Publish converts (agentID, typ, subject, payload) into an event Signal and
// offers it to every current subscriber per the configured DropPolicy. It
// never blocks on a subscriber longer than PublishTimeout allows, and
// returns only an error from signal construction itself (an invalid typ),
// never a subscriber delivery failure.
func (b *Bus) Publish(ctx context.Context, agentID, typ, subject string, payload map[string]any) error {
	sig, err := signal.New(agentID, typ, subject, payload, nil, nil)
	if err != nil {
		return fmt.Errorf("bus: build event signal: %w", err)
	}

	b.mu.RLock()
	snapshot := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		snapshot = append(snapshot, sub)
	}
	b.mu.RUnlock()

	for _, sub := range snapshot {
		if b.offer(ctx, sub, sig) {
			b.metrics.delivered.Add(1)
			b.observer.OnEvent(ctx, observability.Event{
				Type:      EventDeliver,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "bus.Publish",
				Data:      map[string]any{"subscriber": sub.sink.ID(), "type": typ},
			})
		} else {
			b.metrics.dropped.Add(1)
			b.observer.OnEvent(ctx, observability.Event{
				Type:      EventDrop,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "bus.Publish",
				Data:      map[string]any{"subscriber": sub.sink.ID(), "type": typ},
			})
		}
	}

	return nil
}

// offer enqueues sig on sub's channel per the drop policy: "drop" (default)
// gives up immediately if the channel is full; "block" waits up to
// PublishTimeout first.
func (b *Bus) offer(ctx context.Context, sub *subscription, sig signal.Signal) bool {
	if b.cfg.DropPolicy != "block" {
		select {
		case sub.ch <- sig:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(b.cfg.PublishTimeout)
	defer timer.Stop()

	select {
	case sub.ch <- sig:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// deliverLoop drains sub's channel in order, calling sub.sink.Deliver
// sequentially, until ctx is cancelled by Unsubscribe.
func (b *Bus) deliverLoop(ctx context.Context, sub *subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sub.ch:
			sub.sink.Deliver(ctx, sig)
		}
	}
}

// Metrics returns a snapshot of this Bus's subscriber count and
// delivered/dropped totals.
func (b *Bus) Metrics() MetricsSnapshot {
	return b.metrics.snapshot()
}
