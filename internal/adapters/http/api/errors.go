package api

import (
	"errors"
	"net/http"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/negotiation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrServe      = errors.New("http serve failed")
)

// classify maps a domain error to a status code and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, negotiation.ErrInsufficientScholarship):
		return http.StatusUnprocessableEntity, "insufficient_scholarship"
	case errors.Is(err, negotiation.ErrRosterFull):
		return http.StatusUnprocessableEntity, "roster_full"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, negotiation.ErrInvalidOffer),
		errors.Is(err, negotiation.ErrInvalidReleaseReason),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, negotiation.ErrNegotiationExists):
		return http.StatusConflict, "negotiation_exists"
	case errors.Is(err, negotiation.ErrTerminal):
		return http.StatusConflict, "negotiation_closed"
	case errors.Is(err, negotiation.ErrNegotiationNotFound),
		errors.Is(err, negotiation.ErrTargetNotFound),
		errors.Is(err, negotiation.ErrTeamNotFound),
		errors.Is(err, negotiation.ErrPlayerNotFound),
		errors.Is(err, repository.ErrTeamNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
