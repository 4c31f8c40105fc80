package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/okian/signingday/internal/domain/model"
)

var hundred = decimal.NewFromInt(100)

// Classify maps a share to its display level. Thresholds are percentages of
// one full grant unit.
func Classify(share float64, th model.LevelThresholds) model.Level {
	pct := decimal.NewFromFloat(share).Mul(hundred)
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromFloat(th.FullPct)):
		return model.LevelFull
	case pct.GreaterThanOrEqual(decimal.NewFromFloat(th.HalfPct)):
		return model.LevelHalf
	case pct.GreaterThanOrEqual(decimal.NewFromFloat(th.QuarterPct)):
		return model.LevelQuarter
	default:
		return model.LevelMinimal
	}
}

// Summary is the roster screen's view of a team's pool.
type Summary struct {
	Total         float64             `json:"total"`
	Used          float64             `json:"used"`
	Available     float64             `json:"available"`
	RosterSize    int                 `json:"roster_size"`
	RosterMin     uint32              `json:"roster_min"`
	RosterMax     uint32              `json:"roster_max"`
	BelowMinimum  bool                `json:"below_minimum"`
	AtMaximum     bool                `json:"at_maximum"`
	OverCommitted bool                `json:"over_committed"`
	LegacyEntries int                 `json:"legacy_entries"`
	Levels        map[model.Level]int `json:"levels"`
}

// Summarize builds a Summary for a roster.
func Summarize(pool model.GrantPool, roster []model.RosterEntry, th model.LevelThresholds) Summary {
	l := ForRoster(pool, roster)
	s := Summary{
		Total:         pool.TotalGrantUnits,
		Used:          l.UsedShare(),
		Available:     l.AvailableShare(),
		RosterSize:    len(roster),
		RosterMin:     pool.RosterSizeMin,
		RosterMax:     pool.RosterSizeMax,
		BelowMinimum:  uint32(len(roster)) < pool.RosterSizeMin,
		AtMaximum:     pool.RosterSizeMax > 0 && uint32(len(roster)) >= pool.RosterSizeMax,
		OverCommitted: l.OverCommitted(),
		Levels:        make(map[model.Level]int, len(model.Levels)),
	}
	for _, lv := range model.Levels {
		s.Levels[lv] = 0
	}
	for _, e := range roster {
		if e.Legacy() {
			s.LegacyEntries++
		}
	}
	for _, a := range l.allocations {
		s.Levels[Classify(a.Share, th)]++
	}
	return s
}
