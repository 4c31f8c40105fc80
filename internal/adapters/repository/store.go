// Package repository holds the authoritative roster and available-pool state
// and defines the store contracts the domain works against.
package repository

import (
	"context"

	"github.com/okian/signingday/internal/domain/model"
)

// Prospect is a prospect board row.
type Prospect struct {
	Rank      int    `json:"rank"`
	RecruitID string `json:"recruit_id"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Potential int    `json:"potential"`
}

// TeamState is everything the store knows about one team.
type TeamState struct {
	Team     model.Team               `json:"team" yaml:"team"`
	Roster   []model.RosterEntry      `json:"roster" yaml:"roster"`
	Staff    []model.StaffEntry       `json:"staff" yaml:"staff"`
	Awards   []model.ScholarshipAward `json:"awards" yaml:"awards"`
	Counters model.Counters           `json:"counters" yaml:"counters"`
	// Alumni keeps the recruit record of signed players so a released
	// player can return to the available pool.
	Alumni []model.Recruit `json:"alumni,omitempty" yaml:"alumni,omitempty"`
}

// Market is the available pool of unsigned targets.
type Market struct {
	Recruits []model.Recruit `json:"recruits" yaml:"recruits"`
	Coaches  []model.Coach   `json:"coaches" yaml:"coaches"`
}

// Store provides read/write access to rosters and the available pool.
type Store interface {
	// Team returns the team or ErrTeamNotFound.
	Team(ctx context.Context, teamID string) (model.Team, error)
	// TeamIDs returns all team IDs in ascending order.
	TeamIDs(ctx context.Context) []string
	// Recruit returns an unsigned recruit or ErrTargetNotFound.
	Recruit(ctx context.Context, id string) (model.Recruit, error)
	// Coach returns an unsigned coach or ErrTargetNotFound.
	Coach(ctx context.Context, id string) (model.Coach, error)
	// State returns a copy of the team's state.
	State(ctx context.Context, teamID string) (TeamState, error)
	// SetCounters overwrites the cached counters without touching the roster.
	// It exists for screens that adjust counters directly.
	SetCounters(ctx context.Context, teamID string, c model.Counters) error
	// WithTeam runs fn under the team's exclusion boundary. Changes made
	// through the Tx are committed only if fn returns nil.
	WithTeam(ctx context.Context, teamID string, fn func(Tx) error) error
}

// Tx is a view of one team's state inside WithTeam.
type Tx interface {
	Team() model.Team
	Roster() []model.RosterEntry
	Staff() []model.StaffEntry
	Counters() model.Counters
	SetCounters(c model.Counters)
	Award(playerID string) (model.ScholarshipAward, bool)

	// TakeRecruit removes a recruit from the available pool.
	TakeRecruit(id string) (model.Recruit, error)
	// TakeCoach removes a coach from the available pool.
	TakeCoach(id string) (model.Coach, error)

	// SignPlayer appends a roster entry and its award.
	SignPlayer(r model.Recruit, entry model.RosterEntry, award model.ScholarshipAward)
	// SignCoach appends a staff entry.
	SignCoach(entry model.StaffEntry)
	// ReleasePlayer removes a roster entry and its award; when returnToPool is
	// set the recruit becomes available again.
	ReleasePlayer(playerID string, returnToPool bool) (model.RosterEntry, error)
	// SetShare changes the share of a signed player's award.
	SetShare(playerID string, share float64) (model.ScholarshipAward, error)
}
