package repository

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/okian/signingday/internal/domain/model"
)

func TestProspectBoard_Ordering(t *testing.T) {
	b := newProspectBoard()
	for _, r := range []model.Recruit{
		{ID: "r3", Potential: 75},
		{ID: "r1", Potential: 90},
		{ID: "r4", Potential: 60},
		{ID: "r2", Potential: 90},
		{ID: "r5", Potential: 80},
	} {
		b.add(r)
	}

	got := b.top(10)
	want := []struct {
		id   string
		rank int
	}{
		{"r1", 1}, {"r2", 1}, {"r5", 3}, {"r3", 4}, {"r4", 5},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d prospects, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].RecruitID != w.id || got[i].Rank != w.rank {
			t.Errorf("position %d: expected %s rank %d, got %s rank %d", i, w.id, w.rank, got[i].RecruitID, got[i].Rank)
		}
	}

	for _, w := range want {
		p, ok := b.rank(w.id)
		if !ok {
			t.Fatalf("expected %s on the board", w.id)
		}
		if p.Rank != w.rank {
			t.Errorf("rank(%s): expected %d, got %d", w.id, w.rank, p.Rank)
		}
	}

	if top := b.top(2); len(top) != 2 || top[1].RecruitID != "r2" {
		t.Errorf("expected top 2 to end with r2, got %+v", top)
	}
}

func TestProspectBoard_RemoveAndReAdd(t *testing.T) {
	b := newProspectBoard()
	b.add(model.Recruit{ID: "a", Potential: 50})
	b.add(model.Recruit{ID: "b", Potential: 70})

	b.remove("b")
	if _, ok := b.rank("b"); ok {
		t.Error("expected b to be removed")
	}
	if p, _ := b.rank("a"); p.Rank != 1 {
		t.Errorf("expected a to move to rank 1, got %d", p.Rank)
	}

	b.remove("missing")
	if b.len() != 1 {
		t.Errorf("expected 1 prospect, got %d", b.len())
	}

	// Re-adding with a new potential replaces the old node.
	b.add(model.Recruit{ID: "a", Potential: 99})
	b.add(model.Recruit{ID: "c", Potential: 80})
	if b.len() != 2 {
		t.Fatalf("expected 2 prospects, got %d", b.len())
	}
	if top := b.top(1); top[0].RecruitID != "a" || top[0].Potential != 99 {
		t.Errorf("expected a at 99 on top, got %+v", top[0])
	}
}

func TestProspectBoard_RandomizedAgainstSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := newProspectBoard()
	live := make(map[string]int)

	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("r%03d", rng.Intn(300))
		if rng.Intn(4) == 0 {
			b.remove(id)
			delete(live, id)
			continue
		}
		pot := rng.Intn(101)
		b.add(model.Recruit{ID: id, Potential: pot})
		live[id] = pot
	}

	type kv struct {
		id  string
		pot int
	}
	expected := make([]kv, 0, len(live))
	for id, pot := range live {
		expected = append(expected, kv{id, pot})
	}
	sort.Slice(expected, func(i, j int) bool {
		return less(expected[i].pot, expected[i].id, expected[j].pot, expected[j].id)
	})

	got := b.top(len(expected) + 10)
	if len(got) != len(expected) {
		t.Fatalf("expected %d prospects, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i].RecruitID != expected[i].id {
			t.Fatalf("position %d: expected %s, got %s", i, expected[i].id, got[i].RecruitID)
		}
		p, _ := b.rank(expected[i].id)
		if p.Rank != got[i].Rank {
			t.Fatalf("rank mismatch for %s: top=%d rank=%d", expected[i].id, got[i].Rank, p.Rank)
		}
	}
}
