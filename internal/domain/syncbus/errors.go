package syncbus

import "errors"

var (
	// ErrInvalidEventType is returned for unknown event types.
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("nil handler")
	// ErrInvalidInterval is returned for non-positive check intervals.
	ErrInvalidInterval = errors.New("invalid sync check interval")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("sync bus closed")
)
