package model

import "time"

// NegotiationID identifies a negotiation.
type NegotiationID string

// Status is the state of a negotiation.
type Status string

const (
	StatusActive         Status = "active"
	StatusCounterPending Status = "counter_pending"
	StatusAccepted       Status = "accepted"
	StatusRejected       Status = "rejected"
	StatusWithdrawn      Status = "withdrawn"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

// Open reports whether the negotiation still blocks a new one for the same
// (team, target) pair.
func (s Status) Open() bool {
	return s == StatusActive || s == StatusCounterPending
}

// Negotiation is the state of one team's pursuit of one target.
type Negotiation struct {
	ID                    NegotiationID
	TeamID                string
	TargetID              string
	TargetKind            TargetKind
	Status                Status
	Round                 uint32
	MaxRounds             uint32
	CurrentOffer          Offer
	AcceptanceProbability uint8
	History               []Offer
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Clone returns a copy whose History does not alias n's.
func (n Negotiation) Clone() Negotiation {
	c := n
	c.History = append([]Offer(nil), n.History...)
	return c
}

// RoundsExhausted reports whether the advisory round budget is spent. The
// engine never acts on it; callers decide whether to keep going.
func (n Negotiation) RoundsExhausted() bool {
	return n.MaxRounds > 0 && n.Round >= n.MaxRounds
}

// SignedTarget is the result of an accepted negotiation.
type SignedTarget struct {
	Kind   TargetKind
	TeamID string
	Player *RosterEntry
	Award  *ScholarshipAward
	Coach  *StaffEntry
}
