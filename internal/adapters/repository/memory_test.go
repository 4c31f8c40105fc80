package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func share(v float64) *float64 { return &v }

func seed(ctx context.Context) *repository.MemoryStore {
	s := repository.NewMemoryStore()
	So(s.AddTeam(ctx, repository.TeamState{
		Team: model.Team{ID: "t1", Name: "Wildcats"},
		Roster: []model.RosterEntry{
			{PlayerID: "p1", Name: "One", Share: share(1)},
			{PlayerID: "p2", Name: "Two"},
		},
	}), ShouldBeNil)
	So(s.AddRecruit(ctx, model.Recruit{ID: "r1", Name: "Rook", Potential: 85}), ShouldBeNil)
	So(s.AddRecruit(ctx, model.Recruit{ID: "r2", Name: "Ace", Potential: 70}), ShouldBeNil)
	So(s.AddCoach(ctx, model.Coach{ID: "c1", Name: "Coach"}), ShouldBeNil)
	return s
}

func TestMemoryStore_Registration(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store", t, func() {
		s := seed(ctx)

		Convey("Then the team gets the default pool and derived counters", func() {
			team, err := s.Team(ctx, "t1")
			So(err, ShouldBeNil)
			So(team.Pool.TotalGrantUnits, ShouldEqual, 5.0)

			st, err := s.State(ctx, "t1")
			So(err, ShouldBeNil)
			So(st.Counters, ShouldResemble, model.Counters{ScholarshipsUsed: 2, RosterSize: 2})
		})

		Convey("Then duplicates are refused", func() {
			err := s.AddTeam(ctx, repository.TeamState{Team: model.Team{ID: "t1"}})
			So(errors.Is(err, repository.ErrTeamExists), ShouldBeTrue)
			So(errors.Is(s.AddRecruit(ctx, model.Recruit{ID: "r1"}), repository.ErrTargetExists), ShouldBeTrue)
			So(errors.Is(s.AddCoach(ctx, model.Coach{ID: "c1"}), repository.ErrTargetExists), ShouldBeTrue)
		})

		Convey("Then unknown IDs are reported", func() {
			_, err := s.Team(ctx, "nope")
			So(errors.Is(err, repository.ErrTeamNotFound), ShouldBeTrue)
			_, err = s.Recruit(ctx, "nope")
			So(errors.Is(err, repository.ErrTargetNotFound), ShouldBeTrue)
			_, err = s.Coach(ctx, "nope")
			So(errors.Is(err, repository.ErrTargetNotFound), ShouldBeTrue)
		})

		Convey("Then state copies do not alias the store", func() {
			st, _ := s.State(ctx, "t1")
			*st.Roster[0].Share = 0.1
			again, _ := s.State(ctx, "t1")
			So(*again.Roster[0].Share, ShouldEqual, 1.0)
		})
	})
}

func TestMemoryStore_WithTeam(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store", t, func() {
		s := seed(ctx)

		Convey("When a transaction signs a recruit and commits", func() {
			err := s.WithTeam(ctx, "t1", func(tx repository.Tx) error {
				r, err := tx.TakeRecruit("r1")
				if err != nil {
					return err
				}
				tx.SignPlayer(r,
					model.RosterEntry{PlayerID: r.ID, Name: r.Name, Share: share(0.5), AwardID: "a1"},
					model.ScholarshipAward{ID: "a1", TeamID: "t1", PlayerID: r.ID, Share: 0.5})
				return nil
			})

			Convey("Then roster, counters and pool reflect the signing", func() {
				So(err, ShouldBeNil)
				st, _ := s.State(ctx, "t1")
				So(len(st.Roster), ShouldEqual, 3)
				So(len(st.Awards), ShouldEqual, 1)
				So(st.Counters, ShouldResemble, model.Counters{ScholarshipsUsed: 2.5, RosterSize: 3})

				_, err := s.Recruit(ctx, "r1")
				So(errors.Is(err, repository.ErrTargetNotFound), ShouldBeTrue)
				_, err = s.ProspectRank(ctx, "r1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And the player is released back to the pool", func() {
				var released model.RosterEntry
				err := s.WithTeam(ctx, "t1", func(tx repository.Tx) error {
					var err error
					released, err = tx.ReleasePlayer("r1", true)
					return err
				})

				Convey("Then the award is gone and the recruit is available again", func() {
					So(err, ShouldBeNil)
					So(released.AwardID, ShouldEqual, "a1")
					st, _ := s.State(ctx, "t1")
					So(len(st.Roster), ShouldEqual, 2)
					So(len(st.Awards), ShouldEqual, 0)
					So(st.Counters, ShouldResemble, model.Counters{ScholarshipsUsed: 2, RosterSize: 2})
					r, err := s.Recruit(ctx, "r1")
					So(err, ShouldBeNil)
					So(r.Potential, ShouldEqual, 85)
				})
			})
		})

		Convey("When a transaction fails after taking a recruit", func() {
			boom := errors.New("boom")
			err := s.WithTeam(ctx, "t1", func(tx repository.Tx) error {
				r, _ := tx.TakeRecruit("r1")
				tx.SignPlayer(r, model.RosterEntry{PlayerID: r.ID}, model.ScholarshipAward{PlayerID: r.ID, Share: 1})
				return boom
			})

			Convey("Then nothing changes", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				st, _ := s.State(ctx, "t1")
				So(len(st.Roster), ShouldEqual, 2)
				So(st.Counters.RosterSize, ShouldEqual, 2)
				_, err := s.Recruit(ctx, "r1")
				So(err, ShouldBeNil)
				top, _ := s.TopProspects(ctx, 1)
				So(top[0].RecruitID, ShouldEqual, "r1")
			})
		})

		Convey("When renegotiating a legacy entry's share", func() {
			var award model.ScholarshipAward
			err := s.WithTeam(ctx, "t1", func(tx repository.Tx) error {
				var err error
				award, err = tx.SetShare("p2", 0.25)
				return err
			})

			Convey("Then the entry and counters change together", func() {
				So(err, ShouldBeNil)
				So(award.Share, ShouldEqual, 0.25)
				st, _ := s.State(ctx, "t1")
				So(*st.Roster[1].Share, ShouldEqual, 0.25)
				So(st.Counters.ScholarshipsUsed, ShouldEqual, 1.25)
			})
		})

		Convey("When counters are overwritten out of band", func() {
			So(s.SetCounters(ctx, "t1", model.Counters{ScholarshipsUsed: 9, RosterSize: 1}), ShouldBeNil)

			Convey("Then the roster is untouched", func() {
				st, _ := s.State(ctx, "t1")
				So(st.Counters.RosterSize, ShouldEqual, 1)
				So(len(st.Roster), ShouldEqual, 2)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			called := false
			err := s.WithTeam(cctx, "t1", func(repository.Tx) error { called = true; return nil })

			Convey("Then fn is not run", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(called, ShouldBeFalse)
			})
		})

		Convey("When releasing an unknown player", func() {
			err := s.WithTeam(ctx, "t1", func(tx repository.Tx) error {
				_, err := tx.ReleasePlayer("ghost", false)
				return err
			})

			Convey("Then it fails", func() {
				So(errors.Is(err, repository.ErrPlayerNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryStore_ConcurrentSignings(t *testing.T) {
	ctx := context.Background()

	Convey("Given two teams racing for one recruit", t, func() {
		s := seed(ctx)
		So(s.AddTeam(ctx, repository.TeamState{Team: model.Team{ID: "t2"}}), ShouldBeNil)

		var wg sync.WaitGroup
		results := make(chan error, 2)
		for _, team := range []string{"t1", "t2"} {
			wg.Add(1)
			go func(teamID string) {
				defer wg.Done()
				results <- s.WithTeam(ctx, teamID, func(tx repository.Tx) error {
					r, err := tx.TakeRecruit("r2")
					if err != nil {
						return err
					}
					tx.SignPlayer(r, model.RosterEntry{PlayerID: r.ID, Share: share(0.5)}, model.ScholarshipAward{PlayerID: r.ID, Share: 0.5})
					return nil
				})
			}(team)
		}
		wg.Wait()
		close(results)

		Convey("Then exactly one team signs them", func() {
			failures := 0
			for err := range results {
				if err != nil {
					So(errors.Is(err, repository.ErrTargetNotFound), ShouldBeTrue)
					failures++
				}
			}
			So(failures, ShouldEqual, 1)
		})
	})
}

func TestMemoryStore_ExportImport(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store with drifted counters", t, func() {
		s := seed(ctx)
		So(s.SetCounters(ctx, "t1", model.Counters{ScholarshipsUsed: 1, RosterSize: 1}), ShouldBeNil)

		Convey("When exported into a fresh store", func() {
			teams, market := s.Export(ctx)
			fresh := repository.NewMemoryStore()
			So(fresh.Import(ctx, teams, market), ShouldBeNil)

			Convey("Then state, drift included, carries over", func() {
				st, err := fresh.State(ctx, "t1")
				So(err, ShouldBeNil)
				So(st.Counters.RosterSize, ShouldEqual, 1)
				So(len(st.Roster), ShouldEqual, 2)
				So(len(market.Recruits), ShouldEqual, 2)
				So(market.Recruits[0].ID, ShouldEqual, "r1")
				top, err := fresh.TopProspects(ctx, 5)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
			})
		})

		Convey("When asking for zero prospects", func() {
			_, err := s.TopProspects(ctx, 0)

			Convey("Then the limit is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})
}
