package bus

import "errors"

var (
	ErrSubscriberExists   = errors.New("bus: subscriber already registered")
	ErrSubscriberNotFound = errors.New("bus: subscriber not found")
	ErrEmptySubscriberID  = errors.New("bus: subscriber id must not be empty")
)
