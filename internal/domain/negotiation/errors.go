package negotiation

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrInvalidOffer         = errors.New("invalid offer")
	ErrInvalidReleaseReason = errors.New("invalid release reason")
)

// Not-found errors.
var (
	ErrTargetNotFound      = errors.New("target not found")
	ErrNegotiationNotFound = errors.New("negotiation not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrPlayerNotFound      = errors.New("player not on roster")
)

// Conflict errors.
var (
	ErrNegotiationExists = errors.New("negotiation already open for target")
	ErrTerminal          = errors.New("negotiation already closed")
)

// Capacity errors. Operations returning them have made no changes.
var (
	ErrInsufficientScholarship = errors.New("insufficient scholarship share")
	ErrRosterFull              = errors.New("roster full")
)

// CapacityError carries the share a caller must give up for the operation
// to fit the grant pool. It matches ErrInsufficientScholarship.
type CapacityError struct {
	Op        string
	TeamID    string
	Requested float64
	Available float64
	Deficit   float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: team %s requested %.4g with %.4g available (deficit %.4g): %v",
		e.Op, e.TeamID, e.Requested, e.Available, e.Deficit, ErrInsufficientScholarship)
}

func (e *CapacityError) Unwrap() error { return ErrInsufficientScholarship }

// Deficit extracts the deficit from a capacity error, if err is one.
func Deficit(err error) (float64, bool) {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce.Deficit, true
	}
	return 0, false
}

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOffer), errors.Is(err, ErrInvalidReleaseReason):
		return "invalid"
	case errors.Is(err, ErrInsufficientScholarship):
		return "insufficient_scholarship"
	case errors.Is(err, ErrRosterFull):
		return "roster_full"
	case errors.Is(err, ErrNegotiationExists):
		return "exists"
	case errors.Is(err, ErrTerminal):
		return "terminal"
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrNegotiationNotFound),
		errors.Is(err, ErrTeamNotFound), errors.Is(err, ErrPlayerNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
