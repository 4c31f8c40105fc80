// Package api serves the recruitment screens' JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/negotiation"
	"github.com/okian/signingday/internal/domain/syncbus"
	"github.com/okian/signingday/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Negotiator is the negotiation engine as seen by the API.
type Negotiator interface {
	StartNegotiation(ctx context.Context, teamID, targetID string, kind model.TargetKind, offer model.Offer) (model.NegotiationID, error)
	UpdateOffer(ctx context.Context, id model.NegotiationID, offer model.Offer) (uint8, error)
	CompleteNegotiation(ctx context.Context, id model.NegotiationID, accept bool) (model.SignedTarget, error)
	Withdraw(ctx context.Context, id model.NegotiationID) error
	Get(ctx context.Context, id model.NegotiationID) (model.Negotiation, error)
	ListActive(ctx context.Context, teamID string) []model.Negotiation
	ReleasePlayer(ctx context.Context, teamID, playerID string, reason negotiation.ReleaseReason) error
	RenegotiateAward(ctx context.Context, teamID, playerID string, newShare float64) (model.ScholarshipAward, error)
}

// Rosters is the read side of the roster store.
type Rosters interface {
	State(ctx context.Context, teamID string) (repository.TeamState, error)
	TopProspects(ctx context.Context, n int) ([]repository.Prospect, error)
	ProspectRank(ctx context.Context, recruitID string) (repository.Prospect, error)
}

// Syncer runs an on-demand consistency pass.
type Syncer interface {
	PerformConsistencyCheck(ctx context.Context) syncbus.Report
}

// Dependencies bundles what the handlers need.
type Dependencies struct {
	Engine     Negotiator
	Rosters    Rosters
	Sync       Syncer
	Stats      StatsProvider
	Thresholds model.LevelThresholds
}

// Server wires HTTP routes for the recruitment API.
type Server struct {
	engine     Negotiator
	rosters    Rosters
	sync       Syncer
	stats      StatsProvider
	thresholds model.LevelThresholds
	logger     logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		engine:     deps.Engine,
		rosters:    deps.Rosters,
		sync:       deps.Sync,
		stats:      deps.Stats,
		thresholds: deps.Thresholds,
	}
	if s.thresholds == (model.LevelThresholds{}) {
		s.thresholds = model.DefaultLevelThresholds
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger, "api")
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.Handle("GET /metrics", MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.HandleStats, "stats"))

	mux.HandleFunc("POST /negotiations", MetricsMiddleware(s.handleStart, "negotiations"))
	mux.HandleFunc("GET /negotiations", MetricsMiddleware(s.handleList, "negotiations"))
	mux.HandleFunc("GET /negotiations/{id}", MetricsMiddleware(s.handleGet, "negotiation"))
	mux.HandleFunc("POST /negotiations/{id}/offer", MetricsMiddleware(s.handleOffer, "negotiation_offer"))
	mux.HandleFunc("POST /negotiations/{id}/complete", MetricsMiddleware(s.handleComplete, "negotiation_complete"))
	mux.HandleFunc("POST /negotiations/{id}/withdraw", MetricsMiddleware(s.handleWithdraw, "negotiation_withdraw"))

	mux.HandleFunc("GET /teams/{id}/ledger", MetricsMiddleware(s.handleLedger, "team_ledger"))
	mux.HandleFunc("POST /teams/{id}/release", MetricsMiddleware(s.handleRelease, "team_release"))
	mux.HandleFunc("POST /teams/{id}/awards/{player}", MetricsMiddleware(s.handleRenegotiate, "team_award"))

	mux.HandleFunc("GET /prospects", MetricsMiddleware(s.handleProspects, "prospects"))
	mux.HandleFunc("GET /prospects/{id}", MetricsMiddleware(s.handleProspect, "prospect"))

	mux.HandleFunc("POST /sync/check", MetricsMiddleware(s.handleSyncCheck, "sync_check"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Deficit *float64 `json:"deficit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes it. Capacity errors carry the
// deficit so the screen can show how much is missing.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	if d, ok := negotiation.Deficit(err); ok {
		resp.Deficit = &d
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeJSON(w, status, resp)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
