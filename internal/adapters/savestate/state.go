// Package savestate persists a session (rosters, awards, the available pool
// and negotiations) as a versioned JSON or YAML blob.
package savestate

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
)

// Save-state versions. Version 1 predates fractional shares: its roster
// entries carry no share and there are no award records.
const (
	VersionLegacy  = 1
	CurrentVersion = 2
)

// SaveState is the on-disk session.
type SaveState struct {
	Version      int                 `json:"version" yaml:"version"`
	Pool         model.GrantPool     `json:"pool" yaml:"pool"`
	Teams        []TeamRecord        `json:"teams" yaml:"teams"`
	Market       repository.Market   `json:"market" yaml:"market"`
	Negotiations []NegotiationRecord `json:"negotiations" yaml:"negotiations"`
}

// TeamRecord is one team's persisted state.
type TeamRecord struct {
	Team     model.Team          `json:"team" yaml:"team"`
	Roster   []model.RosterEntry `json:"roster" yaml:"roster"`
	Staff    []model.StaffEntry  `json:"staff" yaml:"staff"`
	Awards   []AwardRecord       `json:"awards" yaml:"awards"`
	Counters model.Counters      `json:"counters" yaml:"counters"`
	Alumni   []model.Recruit     `json:"alumni,omitempty" yaml:"alumni,omitempty"`
}

// AwardRecord is a scholarship award with its display level. Level is
// written for readers of the blob and recomputed on load.
type AwardRecord struct {
	ID            string      `json:"id" yaml:"id"`
	TeamID        string      `json:"team_id" yaml:"team_id"`
	PlayerID      string      `json:"player_id" yaml:"player_id"`
	Share         float64     `json:"share" yaml:"share"`
	Level         model.Level `json:"level" yaml:"level"`
	NegotiationID string      `json:"negotiation_id,omitempty" yaml:"negotiation_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at" yaml:"created_at"`
}

// OfferRecord is an offer tagged with the kind of target it applies to.
type OfferRecord struct {
	Kind                 model.TargetKind `json:"kind" yaml:"kind"`
	ScholarshipShare     float64          `json:"scholarship_share,omitempty" yaml:"scholarship_share,omitempty"`
	PlayingTimeGuarantee uint32           `json:"playing_time_guarantee,omitempty" yaml:"playing_time_guarantee,omitempty"`
	Salary               float64          `json:"salary,omitempty" yaml:"salary,omitempty"`
	Bonus                float64          `json:"bonus,omitempty" yaml:"bonus,omitempty"`
}

// NegotiationRecord is a persisted negotiation.
type NegotiationRecord struct {
	ID                    model.NegotiationID `json:"id" yaml:"id"`
	TeamID                string              `json:"team_id" yaml:"team_id"`
	TargetID              string              `json:"target_id" yaml:"target_id"`
	TargetKind            model.TargetKind    `json:"target_kind" yaml:"target_kind"`
	Status                model.Status        `json:"status" yaml:"status"`
	Round                 uint32              `json:"round" yaml:"round"`
	MaxRounds             uint32              `json:"max_rounds" yaml:"max_rounds"`
	CurrentOffer          *OfferRecord        `json:"current_offer,omitempty" yaml:"current_offer,omitempty"`
	AcceptanceProbability uint8               `json:"acceptance_probability" yaml:"acceptance_probability"`
	History               []OfferRecord       `json:"history" yaml:"history"`
	CreatedAt             time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at" yaml:"updated_at"`
}

// Exporter is the store side of Capture.
type Exporter interface {
	Export(ctx context.Context) ([]repository.TeamState, repository.Market)
}

// Importer is the store side of Apply.
type Importer interface {
	Import(ctx context.Context, teams []repository.TeamState, m repository.Market) error
}

// Snapshotter is the engine side of Capture.
type Snapshotter interface {
	Snapshot(ctx context.Context) []model.Negotiation
}

// Restorer is the engine side of Apply.
type Restorer interface {
	Restore(ctx context.Context, negotiations []model.Negotiation) error
}

// Capture builds a current-version save-state from a running session.
func Capture(ctx context.Context, store Exporter, engine Snapshotter, pool model.GrantPool, th model.LevelThresholds) SaveState {
	teams, market := store.Export(ctx)
	st := SaveState{
		Version:      CurrentVersion,
		Pool:         pool,
		Teams:        make([]TeamRecord, 0, len(teams)),
		Market:       normalizeMarket(market),
		Negotiations: []NegotiationRecord{},
	}
	for _, t := range teams {
		rec := TeamRecord{
			Team:     t.Team,
			Roster:   append([]model.RosterEntry{}, t.Roster...),
			Staff:    append([]model.StaffEntry{}, t.Staff...),
			Awards:   make([]AwardRecord, 0, len(t.Awards)),
			Counters: t.Counters,
			Alumni:   t.Alumni,
		}
		for _, a := range t.Awards {
			rec.Awards = append(rec.Awards, AwardRecord{
				ID:            a.ID,
				TeamID:        a.TeamID,
				PlayerID:      a.PlayerID,
				Share:         a.Share,
				Level:         ledger.Classify(a.Share, th),
				NegotiationID: a.NegotiationID,
				CreatedAt:     a.CreatedAt,
			})
		}
		st.Teams = append(st.Teams, rec)
	}
	if engine != nil {
		for _, n := range engine.Snapshot(ctx) {
			st.Negotiations = append(st.Negotiations, negotiationRecord(n))
		}
	}
	return st
}

// Apply loads st into a store and an engine, replacing what they held.
func Apply(ctx context.Context, st SaveState, store Importer, engine Restorer) error {
	if st.Version != CurrentVersion {
		return fmt.Errorf("apply version %d: %w", st.Version, ErrUnsupportedVersion)
	}
	teams := make([]repository.TeamState, 0, len(st.Teams))
	for _, t := range st.Teams {
		ts := repository.TeamState{
			Team:     t.Team,
			Roster:   t.Roster,
			Staff:    t.Staff,
			Counters: t.Counters,
			Alumni:   t.Alumni,
		}
		for _, a := range t.Awards {
			ts.Awards = append(ts.Awards, model.ScholarshipAward{
				ID:            a.ID,
				TeamID:        a.TeamID,
				PlayerID:      a.PlayerID,
				Share:         a.Share,
				NegotiationID: a.NegotiationID,
				CreatedAt:     a.CreatedAt,
			})
		}
		teams = append(teams, ts)
	}

	negs := make([]model.Negotiation, 0, len(st.Negotiations))
	for _, r := range st.Negotiations {
		n, err := r.Negotiation()
		if err != nil {
			return err
		}
		negs = append(negs, n)
	}

	if err := store.Import(ctx, teams, st.Market); err != nil {
		return fmt.Errorf("apply save-state: %w", err)
	}
	if engine != nil {
		if err := engine.Restore(ctx, negs); err != nil {
			return fmt.Errorf("apply save-state: %w", err)
		}
	}
	return nil
}

// Negotiation converts the record back into a domain negotiation.
func (r NegotiationRecord) Negotiation() (model.Negotiation, error) {
	n := model.Negotiation{
		ID:                    r.ID,
		TeamID:                r.TeamID,
		TargetID:              r.TargetID,
		TargetKind:            r.TargetKind,
		Status:                r.Status,
		Round:                 r.Round,
		MaxRounds:             r.MaxRounds,
		AcceptanceProbability: r.AcceptanceProbability,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	if r.CurrentOffer != nil {
		o, err := r.CurrentOffer.Offer()
		if err != nil {
			return model.Negotiation{}, fmt.Errorf("negotiation %s: %w", r.ID, err)
		}
		n.CurrentOffer = o
	}
	for i, h := range r.History {
		o, err := h.Offer()
		if err != nil {
			return model.Negotiation{}, fmt.Errorf("negotiation %s history %d: %w", r.ID, i, err)
		}
		n.History = append(n.History, o)
	}
	return n, nil
}

// Offer converts the record back into its offer variant.
func (r OfferRecord) Offer() (model.Offer, error) {
	switch r.Kind {
	case model.TargetPlayer:
		return model.PlayerOffer{ScholarshipShare: r.ScholarshipShare, PlayingTimeGuarantee: r.PlayingTimeGuarantee}, nil
	case model.TargetCoach:
		return model.CoachOffer{Salary: r.Salary, Bonus: r.Bonus}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOfferKind, r.Kind)
	}
}

func offerRecord(o model.Offer) OfferRecord {
	switch v := o.(type) {
	case model.PlayerOffer:
		return OfferRecord{Kind: model.TargetPlayer, ScholarshipShare: v.ScholarshipShare, PlayingTimeGuarantee: v.PlayingTimeGuarantee}
	case model.CoachOffer:
		return OfferRecord{Kind: model.TargetCoach, Salary: v.Salary, Bonus: v.Bonus}
	}
	return OfferRecord{}
}

func negotiationRecord(n model.Negotiation) NegotiationRecord {
	r := NegotiationRecord{
		ID:                    n.ID,
		TeamID:                n.TeamID,
		TargetID:              n.TargetID,
		TargetKind:            n.TargetKind,
		Status:                n.Status,
		Round:                 n.Round,
		MaxRounds:             n.MaxRounds,
		AcceptanceProbability: n.AcceptanceProbability,
		History:               make([]OfferRecord, 0, len(n.History)),
		CreatedAt:             n.CreatedAt,
		UpdatedAt:             n.UpdatedAt,
	}
	if n.CurrentOffer != nil {
		o := offerRecord(n.CurrentOffer)
		r.CurrentOffer = &o
	}
	for _, h := range n.History {
		r.History = append(r.History, offerRecord(h))
	}
	return r
}

func normalizeMarket(m repository.Market) repository.Market {
	if m.Recruits == nil {
		m.Recruits = []model.Recruit{}
	}
	if m.Coaches == nil {
		m.Coaches = []model.Coach{}
	}
	return m
}

// migrate upgrades a legacy blob in place: every roster entry without a
// share becomes a whole unit and gets an award record.
func migrate(st *SaveState) int {
	migrated := 0
	for i := range st.Teams {
		t := &st.Teams[i]
		had := make(map[string]bool, len(t.Awards))
		for _, a := range t.Awards {
			had[a.PlayerID] = true
		}
		migrated += ledger.MigrateLegacy(t.Roster)
		for j := range t.Roster {
			e := &t.Roster[j]
			if had[e.PlayerID] {
				continue
			}
			if e.AwardID == "" {
				e.AwardID = "award-legacy-" + e.PlayerID
			}
			t.Awards = append(t.Awards, AwardRecord{
				ID:       e.AwardID,
				TeamID:   t.Team.ID,
				PlayerID: e.PlayerID,
				Share:    *e.Share,
			})
		}
	}
	st.Version = CurrentVersion
	return migrated
}
