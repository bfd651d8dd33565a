// Package runtime implements the per-agent serving process: the Server
// holding the agent's state, the executor loop that drains the pending
// signal queue one signal at a time, the router that classifies each
// signal by type, the status machine gating dispatch, and the command
// and directive paths that invoke the driven agent.Agent.
//
// Execution is single-flight per server. One call path drives state at
// a time, serialized by a mutex rather than a channel-fed actor, since
// Submit's contract is a blocking call-and-response like a GenServer
// handle_call. Domain events reach external observers through the bus
// package's bounded fan-out.
package runtime
