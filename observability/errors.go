package observability

import "errors"

// ErrObserverNotFound is returned by GetObserver for a name that was
// never registered.
var ErrObserverNotFound = errors.New("observer not found")
