package api

import (
	"fmt"
	"net/http"

	"github.com/okian/signingday/internal/domain/model"
)

type startRequest struct {
	TeamID   string           `json:"team_id"`
	TargetID string           `json:"target_id"`
	Kind     model.TargetKind `json:"kind"`
	Offer    *offerBody       `json:"offer"`
}

type offerRequest struct {
	Offer *offerBody `json:"offer"`
}

type completeRequest struct {
	Accept *bool `json:"accept"`
}

type signedView struct {
	Kind   model.TargetKind   `json:"kind"`
	TeamID string             `json:"team_id"`
	Player *model.RosterEntry `json:"player,omitempty"`
	Award  *awardView         `json:"award,omitempty"`
	Coach  *model.StaffEntry  `json:"coach,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TeamID == "" || req.TargetID == "" {
		s.writeError(w, r, fmt.Errorf("%w: team_id and target_id are required", ErrBadRequest))
		return
	}
	offer, err := req.Offer.toOffer(req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.engine.StartNegotiation(r.Context(), req.TeamID, req.TargetID, req.Kind, offer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewNegotiation(n))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		s.writeError(w, r, fmt.Errorf("%w: team_id is required", ErrBadRequest))
		return
	}
	active := s.engine.ListActive(r.Context(), teamID)
	out := make([]negotiationView, 0, len(active))
	for _, n := range active {
		out = append(out, viewNegotiation(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"team_id":      teamID,
		"negotiations": out,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.Get(r.Context(), model.NegotiationID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewNegotiation(n))
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	id := model.NegotiationID(r.PathValue("id"))
	var req offerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offer, err := req.Offer.toOffer(n.TargetKind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.engine.UpdateOffer(r.Context(), id, offer); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err = s.engine.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewNegotiation(n))
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := model.NegotiationID(r.PathValue("id"))
	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Accept == nil {
		s.writeError(w, r, fmt.Errorf("%w: accept is required", ErrBadRequest))
		return
	}
	signed, err := s.engine.CompleteNegotiation(r.Context(), id, *req.Accept)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !*req.Accept {
		n, err := s.engine.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"negotiation": viewNegotiation(n)})
		return
	}
	out := signedView{
		Kind:   signed.Kind,
		TeamID: signed.TeamID,
		Player: signed.Player,
		Coach:  signed.Coach,
	}
	if signed.Award != nil {
		a := viewAward(*signed.Award, s.thresholds)
		out.Award = &a
	}
	writeJSON(w, http.StatusOK, map[string]any{"signed": out})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Withdraw(r.Context(), model.NegotiationID(r.PathValue("id"))); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
