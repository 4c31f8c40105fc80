package repository

import (
	"fmt"

	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
)

// tx stages changes to a copy of one team's state. Pool removals happen
// immediately under poolMu and are undone on rollback; pool returns are
// deferred to commit.
type tx struct {
	store    *MemoryStore
	state    TeamState
	undo     []func()
	returned []model.Recruit
}

var _ Tx = (*tx)(nil)

func (t *tx) Team() model.Team { return t.state.Team }

func (t *tx) Roster() []model.RosterEntry {
	return cloneState(TeamState{Roster: t.state.Roster}).Roster
}

func (t *tx) Staff() []model.StaffEntry {
	return append([]model.StaffEntry(nil), t.state.Staff...)
}

func (t *tx) Counters() model.Counters { return t.state.Counters }

func (t *tx) SetCounters(c model.Counters) { t.state.Counters = c }

func (t *tx) Award(playerID string) (model.ScholarshipAward, bool) {
	for _, a := range t.state.Awards {
		if a.PlayerID == playerID {
			return a, true
		}
	}
	return model.ScholarshipAward{}, false
}

func (t *tx) TakeRecruit(id string) (model.Recruit, error) {
	s := t.store
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	r, ok := s.recruits[id]
	if !ok {
		return model.Recruit{}, fmt.Errorf("recruit %s: %w", id, ErrTargetNotFound)
	}
	delete(s.recruits, id)
	s.board.remove(id)
	t.undo = append(t.undo, func() {
		s.recruits[r.ID] = r
		s.board.add(r)
	})
	return r, nil
}

func (t *tx) TakeCoach(id string) (model.Coach, error) {
	s := t.store
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	c, ok := s.coaches[id]
	if !ok {
		return model.Coach{}, fmt.Errorf("coach %s: %w", id, ErrTargetNotFound)
	}
	delete(s.coaches, id)
	t.undo = append(t.undo, func() { s.coaches[c.ID] = c })
	return c, nil
}

func (t *tx) SignPlayer(r model.Recruit, entry model.RosterEntry, award model.ScholarshipAward) {
	t.state.Roster = append(t.state.Roster, entry)
	t.state.Awards = append(t.state.Awards, award)
	t.state.Alumni = append(t.state.Alumni, r)
	t.state.Counters.RosterSize++
	t.state.Counters.ScholarshipsUsed = ledger.SumShares(t.state.Counters.ScholarshipsUsed, award.Share)
}

func (t *tx) SignCoach(entry model.StaffEntry) {
	t.state.Staff = append(t.state.Staff, entry)
}

func (t *tx) ReleasePlayer(playerID string, returnToPool bool) (model.RosterEntry, error) {
	idx := t.rosterIndex(playerID)
	if idx < 0 {
		return model.RosterEntry{}, fmt.Errorf("release %s: %w", playerID, ErrPlayerNotFound)
	}
	entry := t.state.Roster[idx]
	t.state.Roster = append(t.state.Roster[:idx], t.state.Roster[idx+1:]...)

	for i, a := range t.state.Awards {
		if a.PlayerID == playerID {
			t.state.Awards = append(t.state.Awards[:i], t.state.Awards[i+1:]...)
			break
		}
	}

	share := ledger.FromRoster([]model.RosterEntry{entry})[0].Share
	t.state.Counters.RosterSize--
	t.state.Counters.ScholarshipsUsed = ledger.SumShares(t.state.Counters.ScholarshipsUsed, -share)

	recruit := model.Recruit{ID: entry.PlayerID, Name: entry.Name}
	for i, r := range t.state.Alumni {
		if r.ID == playerID {
			recruit = r
			t.state.Alumni = append(t.state.Alumni[:i], t.state.Alumni[i+1:]...)
			break
		}
	}
	if returnToPool {
		t.returned = append(t.returned, recruit)
	}
	return entry, nil
}

func (t *tx) SetShare(playerID string, share float64) (model.ScholarshipAward, error) {
	idx := t.rosterIndex(playerID)
	if idx < 0 {
		return model.ScholarshipAward{}, fmt.Errorf("set share %s: %w", playerID, ErrPlayerNotFound)
	}
	old := ledger.FromRoster(t.state.Roster[idx : idx+1])[0].Share
	v := share
	t.state.Roster[idx].Share = &v
	t.state.Counters.ScholarshipsUsed = ledger.SumShares(t.state.Counters.ScholarshipsUsed, -old, share)

	for i := range t.state.Awards {
		if t.state.Awards[i].PlayerID == playerID {
			t.state.Awards[i].Share = share
			return t.state.Awards[i], nil
		}
	}
	return model.ScholarshipAward{
		ID:       t.state.Roster[idx].AwardID,
		TeamID:   t.state.Team.ID,
		PlayerID: playerID,
		Share:    share,
	}, nil
}

func (t *tx) rosterIndex(playerID string) int {
	for i, e := range t.state.Roster {
		if e.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (t *tx) rollback() {
	if len(t.undo) == 0 {
		return
	}
	t.store.poolMu.Lock()
	defer t.store.poolMu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func (t *tx) commit() {
	if len(t.returned) == 0 {
		return
	}
	s := t.store
	s.poolMu.Lock()
	defer s.poolMu.Unlock()
	for _, r := range t.returned {
		s.recruits[r.ID] = r
		s.board.add(r)
	}
}
