package simulate

import "errors"

// Sentinel errors for simulation runs.
var (
	ErrUnhealthy     = errors.New("service not healthy")
	ErrNoProspects   = errors.New("no prospects available")
	ErrOverCommitted = errors.New("ledger over-committed")
	ErrDrift         = errors.New("cached counters drifted")
	ErrInvalidConfig = errors.New("invalid simulation config")
)
