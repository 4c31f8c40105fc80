package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrTeamExists     = errors.New("team already exists")
	ErrTargetNotFound = errors.New("target not found in available pool")
	ErrTargetExists   = errors.New("target already in available pool")
	ErrPlayerNotFound = errors.New("player not on roster")
	ErrNotFound       = errors.New("prospect not found")
	ErrInvalidLimit   = errors.New("invalid prospect limit")
)
