package service

import (
	"context"
	"fmt"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/adapters/savestate"
	"github.com/okian/signingday/pkg/logger"
)

// Codec returns the save-state codec configured with the service thresholds.
func (s *Service) Codec() *savestate.Codec { return s.codec }

// Capture snapshots the running session.
func (s *Service) Capture(ctx context.Context) savestate.SaveState {
	return savestate.Capture(ctx, s.store, s.engine, s.store.DefaultPool(), s.thresholds)
}

// Load replaces the session with st and repairs any counters that drifted
// in the saved data.
func (s *Service) Load(ctx context.Context, st savestate.SaveState) (int, error) {
	if err := savestate.Apply(ctx, st, s.store, s.engine); err != nil {
		return 0, err
	}
	report := s.bus.PerformConsistencyCheck(ctx)
	s.logger.Info(ctx, "session loaded",
		logger.Int("teams", len(st.Teams)),
		logger.Int("negotiations", len(st.Negotiations)),
		logger.Int("repairs", len(report.Repairs)))
	return len(report.Repairs), nil
}

// Seed adds teams and targets to the running session without replacing it.
func (s *Service) Seed(ctx context.Context, teams []repository.TeamState, m repository.Market) error {
	for _, t := range teams {
		if err := s.store.AddTeam(ctx, t); err != nil {
			return fmt.Errorf("seed team %s: %w", t.Team.ID, err)
		}
	}
	for _, r := range m.Recruits {
		if err := s.store.AddRecruit(ctx, r); err != nil {
			return fmt.Errorf("seed recruit %s: %w", r.ID, err)
		}
	}
	for _, c := range m.Coaches {
		if err := s.store.AddCoach(ctx, c); err != nil {
			return fmt.Errorf("seed coach %s: %w", c.ID, err)
		}
	}
	return nil
}

func (s *Service) redisSlots() (*savestate.RedisSlots, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.slots == nil {
		return nil, ErrNoRedis
	}
	return s.slots, nil
}

// SaveSlot stores the current session under a named Redis slot.
func (s *Service) SaveSlot(ctx context.Context, slot string) error {
	slots, err := s.redisSlots()
	if err != nil {
		return err
	}
	return slots.Save(ctx, slot, s.Capture(ctx))
}

// LoadSlot replaces the session with a named Redis slot.
func (s *Service) LoadSlot(ctx context.Context, slot string) (int, error) {
	slots, err := s.redisSlots()
	if err != nil {
		return 0, err
	}
	st, err := slots.Load(ctx, slot)
	if err != nil {
		return 0, err
	}
	return s.Load(ctx, st)
}

// Slots lists the saved slots.
func (s *Service) Slots(ctx context.Context) ([]string, error) {
	slots, err := s.redisSlots()
	if err != nil {
		return nil, err
	}
	return slots.List(ctx)
}
