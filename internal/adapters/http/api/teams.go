package api

import (
	"fmt"
	"net/http"

	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/negotiation"
)

type releaseRequest struct {
	PlayerID string                    `json:"player_id"`
	Reason   negotiation.ReleaseReason `json:"reason"`
}

type renegotiateRequest struct {
	Share *float64 `json:"share"`
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	st, err := s.rosters.State(r.Context(), teamID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view := ledgerView{
		TeamID:   teamID,
		Summary:  ledger.Summarize(st.Team.Pool, st.Roster, s.thresholds),
		Counters: st.Counters,
		Roster:   st.Roster,
		Awards:   make([]awardView, 0, len(st.Awards)),
		Staff:    st.Staff,
	}
	for _, a := range st.Awards {
		view.Awards = append(view.Awards, viewAward(a, s.thresholds))
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PlayerID == "" {
		s.writeError(w, r, fmt.Errorf("%w: player_id is required", ErrBadRequest))
		return
	}
	if req.Reason == "" {
		req.Reason = negotiation.ReasonReleased
	}
	if err := s.engine.ReleasePlayer(r.Context(), r.PathValue("id"), req.PlayerID, req.Reason); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenegotiate(w http.ResponseWriter, r *http.Request) {
	var req renegotiateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Share == nil {
		s.writeError(w, r, fmt.Errorf("%w: share is required", ErrBadRequest))
		return
	}
	award, err := s.engine.RenegotiateAward(r.Context(), r.PathValue("id"), r.PathValue("player"), *req.Share)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAward(award, s.thresholds))
}
