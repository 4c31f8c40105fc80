package redisbridge

import "errors"

var (
	// ErrNoInstance is returned when the bridge has no instance name.
	ErrNoInstance = errors.New("redis bridge: instance name required")
	// ErrStarted is returned when Start is called twice.
	ErrStarted = errors.New("redis bridge: already started")
)
