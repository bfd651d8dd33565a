// Package bus implements a server's output emitter: it converts
// (agentID, type, payload) into an outbound event Signal and delivers it
// to every subscriber. Delivery is best-effort, ordered per subscriber,
// and never blocks the publishing server for longer than the configured
// drop policy allows.
package bus
