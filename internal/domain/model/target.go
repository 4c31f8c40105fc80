// Package model contains domain models passed between layers.
package model

import "fmt"

// TargetKind distinguishes the two kinds of negotiation targets.
type TargetKind string

const (
	TargetPlayer TargetKind = "player"
	TargetCoach  TargetKind = "coach"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetPlayer || k == TargetCoach
}

// ParseTargetKind converts a wire string into a TargetKind.
func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown target kind %q", s)
	}
	return k, nil
}

// Recruit is an unsigned player in the available pool.
type Recruit struct {
	ID                string  `json:"id" yaml:"id"`
	Name              string  `json:"name" yaml:"name"`
	Position          string  `json:"position,omitempty" yaml:"position,omitempty"`
	Potential         int     `json:"potential" yaml:"potential"`                   // 0-100
	SigningDifficulty float64 `json:"signing_difficulty" yaml:"signing_difficulty"` // 0-1
	FinalEligibleYear bool    `json:"final_eligible_year" yaml:"final_eligible_year"`
}

// Coach is an unsigned coach in the available pool.
type Coach struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}
