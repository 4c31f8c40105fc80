package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/pkg/logger"
)

// teamSlot is one team's state and its exclusion boundary.
type teamSlot struct {
	mu    sync.Mutex
	state TeamState
}

// MemoryStore is the in-memory Store implementation.
//
// Lock order: a team's slot mutex is always taken before poolMu. Nothing
// holds two team mutexes at once.
type MemoryStore struct {
	mu    sync.RWMutex // guards the teams map itself
	teams map[string]*teamSlot

	poolMu   sync.Mutex
	recruits map[string]model.Recruit
	coaches  map[string]model.Coach
	board    *prospectBoard

	defaultPool model.GrantPool
	logger      logger.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		teams:       make(map[string]*teamSlot),
		recruits:    make(map[string]model.Recruit),
		coaches:     make(map[string]model.Coach),
		board:       newProspectBoard(),
		defaultPool: model.GrantPool{TotalGrantUnits: 5, RosterSizeMin: 13, RosterSizeMax: 15},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger, "repository")
	return s
}

// DefaultPool returns the grant pool applied to teams registered without one.
func (s *MemoryStore) DefaultPool() model.GrantPool { return s.defaultPool }

// AddTeam registers a team. A zero pool is replaced by the default pool and
// zero counters are derived from the roster.
func (s *MemoryStore) AddTeam(ctx context.Context, st TeamState) error {
	if st.Team.ID == "" {
		return fmt.Errorf("add team: empty id: %w", ErrTeamNotFound)
	}
	if st.Team.Pool == (model.GrantPool{}) {
		st.Team.Pool = s.defaultPool
	}
	if st.Counters == (model.Counters{}) && len(st.Roster) > 0 {
		st.Counters = deriveCounters(st.Roster)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[st.Team.ID]; ok {
		return fmt.Errorf("add team %s: %w", st.Team.ID, ErrTeamExists)
	}
	s.teams[st.Team.ID] = &teamSlot{state: cloneState(st)}
	s.logger.Debug(ctx, "team registered",
		logger.String("team_id", st.Team.ID),
		logger.Int("roster_size", len(st.Roster)))
	return nil
}

// AddRecruit puts a recruit into the available pool and onto the board.
func (s *MemoryStore) AddRecruit(_ context.Context, r model.Recruit) error {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	if _, ok := s.recruits[r.ID]; ok {
		return fmt.Errorf("add recruit %s: %w", r.ID, ErrTargetExists)
	}
	s.recruits[r.ID] = r
	s.board.add(r)
	return nil
}

// AddCoach puts a coach into the available pool.
func (s *MemoryStore) AddCoach(_ context.Context, c model.Coach) error {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	if _, ok := s.coaches[c.ID]; ok {
		return fmt.Errorf("add coach %s: %w", c.ID, ErrTargetExists)
	}
	s.coaches[c.ID] = c
	return nil
}

func (s *MemoryStore) slot(teamID string) (*teamSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrTeamNotFound)
	}
	return sl, nil
}

func (s *MemoryStore) Team(_ context.Context, teamID string) (model.Team, error) {
	sl, err := s.slot(teamID)
	if err != nil {
		return model.Team{}, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.state.Team, nil
}

func (s *MemoryStore) TeamIDs(_ context.Context) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.teams))
	for id := range s.teams {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *MemoryStore) Recruit(_ context.Context, id string) (model.Recruit, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	r, ok := s.recruits[id]
	if !ok {
		return model.Recruit{}, fmt.Errorf("recruit %s: %w", id, ErrTargetNotFound)
	}
	return r, nil
}

func (s *MemoryStore) Coach(_ context.Context, id string) (model.Coach, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	c, ok := s.coaches[id]
	if !ok {
		return model.Coach{}, fmt.Errorf("coach %s: %w", id, ErrTargetNotFound)
	}
	return c, nil
}

func (s *MemoryStore) State(_ context.Context, teamID string) (TeamState, error) {
	sl, err := s.slot(teamID)
	if err != nil {
		return TeamState{}, err
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return cloneState(sl.state), nil
}

func (s *MemoryStore) SetCounters(ctx context.Context, teamID string, c model.Counters) error {
	return s.WithTeam(ctx, teamID, func(tx Tx) error {
		tx.SetCounters(c)
		return nil
	})
}

func (s *MemoryStore) WithTeam(ctx context.Context, teamID string, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sl, err := s.slot(teamID)
	if err != nil {
		return err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	t := &tx{store: s, state: cloneState(sl.state)}
	if err := fn(t); err != nil {
		t.rollback()
		return err
	}
	sl.state = t.state
	t.commit()
	return nil
}

// TopProspects returns the n best unsigned recruits.
func (s *MemoryStore) TopProspects(_ context.Context, n int) ([]Prospect, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	return s.board.top(n), nil
}

// ProspectRank returns the board position of an unsigned recruit.
func (s *MemoryStore) ProspectRank(_ context.Context, recruitID string) (Prospect, error) {
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	p, ok := s.board.rank(recruitID)
	if !ok {
		return Prospect{}, fmt.Errorf("prospect %s: %w", recruitID, ErrNotFound)
	}
	return p, nil
}

// Export copies every team and the available pool, in ID order.
func (s *MemoryStore) Export(ctx context.Context) ([]TeamState, Market) {
	ids := s.TeamIDs(ctx)
	teams := make([]TeamState, 0, len(ids))
	for _, id := range ids {
		if st, err := s.State(ctx, id); err == nil {
			teams = append(teams, st)
		}
	}

	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	m := Market{
		Recruits: make([]model.Recruit, 0, len(s.recruits)),
		Coaches:  make([]model.Coach, 0, len(s.coaches)),
	}
	for _, r := range s.recruits {
		m.Recruits = append(m.Recruits, r)
	}
	for _, c := range s.coaches {
		m.Coaches = append(m.Coaches, c)
	}
	sort.Slice(m.Recruits, func(i, j int) bool { return m.Recruits[i].ID < m.Recruits[j].ID })
	sort.Slice(m.Coaches, func(i, j int) bool { return m.Coaches[i].ID < m.Coaches[j].ID })
	return teams, m
}

// Import replaces the store's contents. Counters are kept as given, drift
// included.
func (s *MemoryStore) Import(ctx context.Context, teams []TeamState, m Market) error {
	slots := make(map[string]*teamSlot, len(teams))
	for _, st := range teams {
		if _, ok := slots[st.Team.ID]; ok {
			return fmt.Errorf("import team %s: %w", st.Team.ID, ErrTeamExists)
		}
		slots[st.Team.ID] = &teamSlot{state: cloneState(st)}
	}

	s.mu.Lock()
	s.teams = slots
	s.mu.Unlock()

	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	s.recruits = make(map[string]model.Recruit, len(m.Recruits))
	s.coaches = make(map[string]model.Coach, len(m.Coaches))
	s.board = newProspectBoard()
	for _, r := range m.Recruits {
		s.recruits[r.ID] = r
		s.board.add(r)
	}
	for _, c := range m.Coaches {
		s.coaches[c.ID] = c
	}
	s.logger.Info(ctx, "store imported",
		logger.Int("teams", len(teams)),
		logger.Int("recruits", len(m.Recruits)),
		logger.Int("coaches", len(m.Coaches)))
	return nil
}

func deriveCounters(roster []model.RosterEntry) model.Counters {
	return model.Counters{
		ScholarshipsUsed: ledger.New(model.GrantPool{}, ledger.FromRoster(roster)).UsedShare(),
		RosterSize:       len(roster),
	}
}

func cloneState(st TeamState) TeamState {
	out := st
	out.Roster = make([]model.RosterEntry, len(st.Roster))
	for i, e := range st.Roster {
		if e.Share != nil {
			v := *e.Share
			e.Share = &v
		}
		out.Roster[i] = e
	}
	out.Staff = append([]model.StaffEntry(nil), st.Staff...)
	out.Awards = append([]model.ScholarshipAward(nil), st.Awards...)
	out.Alumni = append([]model.Recruit(nil), st.Alumni...)
	return out
}
