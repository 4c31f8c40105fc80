// Package ledger computes how much of a team's scholarship grant pool is
// committed. It is a pure view over the roster: nothing here is stored, so
// the ledger cannot drift from the roster it was built from.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/okian/signingday/internal/domain/model"
)

// Allocation is one signed player's committed share.
type Allocation struct {
	PlayerID string
	Share    float64
}

// Affordability is the outcome of a capacity check.
type Affordability struct {
	Allowed bool
	Deficit float64
}

// Ledger is a snapshot of one team's committed shares against its pool.
type Ledger struct {
	pool        model.GrantPool
	allocations []Allocation
	used        decimal.Decimal
}

// New builds a ledger from already-adapted allocations.
func New(pool model.GrantPool, allocations []Allocation) Ledger {
	used := decimal.Zero
	for _, a := range allocations {
		used = used.Add(decimal.NewFromFloat(a.Share))
	}
	return Ledger{
		pool:        pool,
		allocations: append([]Allocation(nil), allocations...),
		used:        used,
	}
}

// ForRoster builds a ledger straight from roster entries.
func ForRoster(pool model.GrantPool, roster []model.RosterEntry) Ledger {
	return New(pool, FromRoster(roster))
}

// Pool returns the grant pool the ledger was built against.
func (l Ledger) Pool() model.GrantPool { return l.pool }

// Allocations returns a copy of the allocations.
func (l Ledger) Allocations() []Allocation {
	return append([]Allocation(nil), l.allocations...)
}

// UsedShare is the sum of committed shares.
func (l Ledger) UsedShare() float64 {
	return l.used.InexactFloat64()
}

// AvailableShare is the uncommitted remainder, never negative.
func (l Ledger) AvailableShare() float64 {
	return decimal.Max(decimal.Zero, l.total().Sub(l.used)).InexactFloat64()
}

// CanAfford checks whether committing proposed more keeps the pool whole.
func (l Ledger) CanAfford(proposed float64) Affordability {
	return l.check(l.used.Add(decimal.NewFromFloat(proposed)))
}

// CanAffordChange checks replacing an existing commitment of oldShare with
// newShare, as when an award is renegotiated.
func (l Ledger) CanAffordChange(oldShare, newShare float64) Affordability {
	after := l.used.Sub(decimal.NewFromFloat(oldShare)).Add(decimal.NewFromFloat(newShare))
	return l.check(after)
}

// OverCommitted reports a pool that is already past capacity, which only
// legacy data can produce.
func (l Ledger) OverCommitted() bool {
	return l.used.GreaterThan(l.total())
}

func (l Ledger) check(after decimal.Decimal) Affordability {
	deficit := after.Sub(l.total())
	if deficit.IsPositive() {
		return Affordability{Allowed: false, Deficit: deficit.InexactFloat64()}
	}
	return Affordability{Allowed: true}
}

func (l Ledger) total() decimal.Decimal {
	return decimal.NewFromFloat(l.pool.TotalGrantUnits)
}

// SumShares adds shares exactly; used where a ledger view is not needed.
func SumShares(shares ...float64) float64 {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(decimal.NewFromFloat(s))
	}
	return sum.InexactFloat64()
}
