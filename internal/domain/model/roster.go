package model

import "time"

// GrantPool is the fixed scholarship capacity of a team for a season.
type GrantPool struct {
	TotalGrantUnits float64 `json:"total_grant_units" yaml:"total_grant_units"`
	RosterSizeMin   uint32  `json:"roster_size_min" yaml:"roster_size_min"`
	RosterSizeMax   uint32  `json:"roster_size_max" yaml:"roster_size_max"`
}

// Team is a program competing for recruits.
type Team struct {
	ID   string    `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
	Pool GrantPool `json:"pool" yaml:"pool"`
	// AI marks computer-managed opponents whose negotiations are resolved by
	// the decision worker pool.
	AI bool `json:"ai,omitempty" yaml:"ai,omitempty"`
}

// RosterEntry is a signed player. A nil Share marks an entry written before
// fractional scholarships existed; only the ledger's input adapter may
// interpret it.
type RosterEntry struct {
	PlayerID    string   `json:"player_id" yaml:"player_id"`
	Name        string   `json:"name" yaml:"name"`
	Share       *float64 `json:"share,omitempty" yaml:"share,omitempty"`
	AwardID     string   `json:"award_id,omitempty" yaml:"award_id,omitempty"`
	SignedRound uint32   `json:"signed_round,omitempty" yaml:"signed_round,omitempty"`
}

// Legacy reports whether the entry predates fractional shares.
func (e RosterEntry) Legacy() bool { return e.Share == nil }

// StaffEntry is a signed coach.
type StaffEntry struct {
	CoachID string  `json:"coach_id" yaml:"coach_id"`
	Name    string  `json:"name" yaml:"name"`
	Role    string  `json:"role,omitempty" yaml:"role,omitempty"`
	Salary  float64 `json:"salary" yaml:"salary"`
	Bonus   float64 `json:"bonus" yaml:"bonus"`
}

// Counters are cached, derived per-team figures that screens read directly.
// They can drift when a shortcut updates them without going through the
// engine; the sync bus repairs them from the roster.
type Counters struct {
	ScholarshipsUsed float64 `json:"scholarships_used" yaml:"scholarships_used"`
	RosterSize       int     `json:"roster_size" yaml:"roster_size"`
}

// ScholarshipAward binds a share of the grant pool to one signed player.
type ScholarshipAward struct {
	ID            string    `json:"id" yaml:"id"`
	TeamID        string    `json:"team_id" yaml:"team_id"`
	PlayerID      string    `json:"player_id" yaml:"player_id"`
	Share         float64   `json:"share" yaml:"share"`
	NegotiationID string    `json:"negotiation_id,omitempty" yaml:"negotiation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// Level is the display classification of an award share.
type Level string

const (
	LevelFull    Level = "full"
	LevelHalf    Level = "half"
	LevelQuarter Level = "quarter"
	LevelMinimal Level = "minimal"
)

// Levels lists the classifications from largest to smallest.
var Levels = []Level{LevelFull, LevelHalf, LevelQuarter, LevelMinimal}

// LevelThresholds are percentages of one full grant unit.
type LevelThresholds struct {
	FullPct    float64 `json:"full_pct" yaml:"full_pct"`
	HalfPct    float64 `json:"half_pct" yaml:"half_pct"`
	QuarterPct float64 `json:"quarter_pct" yaml:"quarter_pct"`
}

// DefaultLevelThresholds is 100/50/25.
var DefaultLevelThresholds = LevelThresholds{FullPct: 100, HalfPct: 50, QuarterPct: 25}
