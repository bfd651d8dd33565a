package chain

import (
	"fmt"

	"github.com/jidogo/runtime/agent"
)

// Error reports which step of an instruction chain failed, carrying the
// agent state as of the last successful step so the caller can decide
// whether to retry, re-queue, or surface it.
type Error struct {
	StepIndex int
	Action    string
	State     agent.State
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("chain: step %d (action %q): %v", e.StepIndex, e.Action, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
