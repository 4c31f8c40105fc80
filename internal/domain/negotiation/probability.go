package negotiation

import (
	"math"

	"github.com/okian/signingday/internal/domain/model"
)

// Probability bounds. The estimate is advisory and never reaches certainty.
const (
	MinProbability = 5
	MaxProbability = 95
)

// DefaultMarketRate is the reference coach salary.
const DefaultMarketRate = 250000.0

// Profile is the target attributes the probability model reads. It is
// captured when a negotiation starts so later rounds do not depend on the
// target still being in the pool.
type Profile struct {
	Potential         int     `json:"potential"`
	SigningDifficulty float64 `json:"signing_difficulty"`
	FinalEligibleYear bool    `json:"final_eligible_year"`
}

// ProfileOf extracts a recruit's profile.
func ProfileOf(r model.Recruit) Profile {
	return Profile{
		Potential:         r.Potential,
		SigningDifficulty: r.SigningDifficulty,
		FinalEligibleYear: r.FinalEligibleYear,
	}
}

// ProbabilityModel estimates acceptance. It is a pure function of its
// inputs.
type ProbabilityModel struct {
	MarketRate float64
}

// Initial is the first-round estimate for offer.
func (m ProbabilityModel) Initial(offer model.Offer, p Profile) uint8 {
	return clamp(m.base(offer, p))
}

// Update is the estimate after round rounds; each round softens the target.
func (m ProbabilityModel) Update(offer model.Offer, p Profile, round uint32) uint8 {
	return clamp(m.base(offer, p) + float64(round)*2)
}

func (m ProbabilityModel) base(offer model.Offer, p Profile) float64 {
	base := 50.0
	switch o := offer.(type) {
	case model.PlayerOffer:
		base += (o.ScholarshipShare - 0.5) * 40
		base += (float64(o.PlayingTimeGuarantee) - 20) * 0.5
		base -= p.SigningDifficulty * 30
		if p.Potential >= 80 {
			base -= 10
		}
		if p.FinalEligibleYear {
			base -= 5
		}
	case model.CoachOffer:
		rate := m.MarketRate
		if rate <= 0 {
			rate = DefaultMarketRate
		}
		base += ((o.Salary - rate) / rate) * 20
	}
	return base
}

func clamp(v float64) uint8 {
	if math.IsNaN(v) || v < MinProbability {
		return MinProbability
	}
	if v > MaxProbability {
		return MaxProbability
	}
	return uint8(math.Round(v))
}
