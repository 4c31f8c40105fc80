package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const defaultProspectLimit = 25

func (s *Server) handleProspects(w http.ResponseWriter, r *http.Request) {
	limit := defaultProspectLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: limit must be an integer", ErrBadRequest))
			return
		}
		limit = n
	}
	top, err := s.rosters.TopProspects(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prospects": top})
}

func (s *Server) handleProspect(w http.ResponseWriter, r *http.Request) {
	p, err := s.rosters.ProspectRank(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSyncCheck(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeJSON(w, http.StatusOK, map[string]any{"teams_checked": 0})
		return
	}
	writeJSON(w, http.StatusOK, s.sync.PerformConsistencyCheck(r.Context()))
}
