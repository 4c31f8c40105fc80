package queue

import "errors"

// Sentinel errors for callers that need to report why an enqueue failed.
var (
	ErrClosed = errors.New("decision queue closed")
	ErrFull   = errors.New("decision queue full")
)
