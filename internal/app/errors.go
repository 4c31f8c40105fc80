package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNoRedis        = errors.New("redis not configured")
	ErrAlreadyStarted = errors.New("service already started")
)
