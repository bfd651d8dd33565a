package directive

// Status is an agent server's lifecycle status.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusIdle         Status = "idle"
	StatusRunning      Status = "running"
	StatusPaused       Status = "paused"
	StatusStopped      Status = "stopped"
)

// legalTransitions enumerates the status machine's allowed edges:
// initializing to idle, idle to running and back, idle to paused and
// back, and any status to stopped.
var legalTransitions = map[Status]map[Status]bool{
	StatusInitializing: {StatusIdle: true, StatusStopped: true},
	StatusIdle:         {StatusRunning: true, StatusPaused: true, StatusStopped: true},
	StatusRunning:      {StatusIdle: true, StatusStopped: true},
	StatusPaused:       {StatusIdle: true, StatusStopped: true},
	StatusStopped:      {},
}

// CanTransition reports whether moving from "from" to "to" is a legal
// status-machine edge.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	edges, ok := legalTransitions[from]
	if !ok {
		return false
	}
	return edges[to]
}
