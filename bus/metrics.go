package bus

import "sync/atomic"

// MetricsSnapshot is a point-in-time read of a Bus's counters.
type MetricsSnapshot struct {
	Subscribers int64
	Delivered   int64
	Dropped     int64
}

type metrics struct {
	subscribers atomic.Int64
	delivered   atomic.Int64
	dropped     atomic.Int64
}

func (m *metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Subscribers: m.subscribers.Load(),
		Delivered:   m.delivered.Load(),
		Dropped:     m.dropped.Load(),
	}
}
