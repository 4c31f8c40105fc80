package simulate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/adapters/savestate"
	"github.com/okian/signingday/internal/domain/model"
)

// Potential tiers, as [min, min+span).
const (
	tierAverage = iota
	tierHigh
	tierLow
	tierElite
	tierMidHigh
	tierMidLow
	tierWide
	tierCount
)

var tierRanges = [tierCount][2]float64{
	tierAverage: {45, 25},
	tierHigh:    {70, 15},
	tierLow:     {20, 25},
	tierElite:   {90, 10},
	tierMidHigh: {60, 15},
	tierMidLow:  {35, 15},
	tierWide:    {1, 99},
}

var (
	mascots   = []string{"Wildcats", "Hornets", "Falcons", "Bulldogs", "Mustangs", "Otters", "Comets", "Ravens"}
	positions = []string{"PG", "SG", "SF", "PF", "C"}
	roles     = []string{"assistant", "strength", "recruiting", "video"}
)

// GenerateClass builds a fresh session: empty rosters, an available pool of
// recruits drawn from tiered potentials, and coaches. The same seed always
// yields the same session.
func GenerateClass(cfg ClassConfig) (savestate.SaveState, error) {
	if cfg.Teams < 1 || cfg.Recruits < 0 || cfg.Coaches < 0 {
		return savestate.SaveState{}, fmt.Errorf("%w: need at least one team", ErrInvalidConfig)
	}
	if cfg.Pool.TotalGrantUnits <= 0 || cfg.Pool.RosterSizeMax == 0 {
		return savestate.SaveState{}, fmt.Errorf("%w: grant pool must be positive", ErrInvalidConfig)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed))

	st := savestate.SaveState{
		Version:      savestate.CurrentVersion,
		Pool:         cfg.Pool,
		Teams:        make([]savestate.TeamRecord, 0, cfg.Teams),
		Market:       repository.Market{Recruits: make([]model.Recruit, 0, cfg.Recruits), Coaches: make([]model.Coach, 0, cfg.Coaches)},
		Negotiations: []savestate.NegotiationRecord{},
	}
	for i := range cfg.Teams {
		name := mascots[i%len(mascots)]
		if i >= len(mascots) {
			name = fmt.Sprintf("%s %d", name, i/len(mascots)+1)
		}
		st.Teams = append(st.Teams, savestate.TeamRecord{
			Team:   model.Team{ID: fmt.Sprintf("team-%d", i+1), Name: name, Pool: cfg.Pool, AI: i > 0},
			Roster: []model.RosterEntry{},
			Staff:  []model.StaffEntry{},
			Awards: []savestate.AwardRecord{},
		})
	}
	for i := range cfg.Recruits {
		potential := generatePotential(rng)
		st.Market.Recruits = append(st.Market.Recruits, model.Recruit{
			ID:                fmt.Sprintf("rec-%03d", i+1),
			Name:              fmt.Sprintf("Recruit %d", i+1),
			Position:          positions[rng.IntN(len(positions))],
			Potential:         potential,
			SigningDifficulty: difficulty(rng, potential),
			FinalEligibleYear: rng.IntN(4) == 0,
		})
	}
	for i := range cfg.Coaches {
		st.Market.Coaches = append(st.Market.Coaches, model.Coach{
			ID:   fmt.Sprintf("coach-%d", i+1),
			Name: fmt.Sprintf("Coach %d", i+1),
			Role: roles[i%len(roles)],
		})
	}
	return st, nil
}

// generatePotential draws a tier, then a potential within it.
func generatePotential(rng *rand.Rand) int {
	r := tierRanges[rng.IntN(tierCount)]
	return int(math.Min(100, r[0]+rng.Float64()*r[1]))
}

// difficulty grows with potential, with some noise, within [0, 1].
func difficulty(rng *rand.Rand, potential int) float64 {
	d := 0.1 + float64(potential)/125 + (rng.Float64()-0.5)*0.2
	d = math.Max(0, math.Min(1, d))
	return math.Round(d*100) / 100
}
