package simulate_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	service "github.com/okian/signingday/internal/app"
	"github.com/okian/signingday/internal/config"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/simulate"
	. "github.com/smartystreets/goconvey/convey"
)

var pool = model.GrantPool{TotalGrantUnits: 5, RosterSizeMin: 1, RosterSizeMax: 30}

func TestGenerateClass(t *testing.T) {
	Convey("Given a class configuration", t, func() {
		cfg := simulate.ClassConfig{Teams: 3, Recruits: 200, Coaches: 5, Pool: pool, Seed: 7}

		Convey("When a class is generated", func() {
			st, err := simulate.GenerateClass(cfg)
			So(err, ShouldBeNil)

			Convey("Then only the first team is human-managed", func() {
				So(st.Teams, ShouldHaveLength, 3)
				So(st.Teams[0].Team.AI, ShouldBeFalse)
				So(st.Teams[1].Team.AI, ShouldBeTrue)
				So(st.Teams[2].Team.Pool, ShouldResemble, pool)
				So(st.Teams[0].Roster, ShouldBeEmpty)
			})

			Convey("Then every recruit is within the documented ranges", func() {
				So(st.Market.Recruits, ShouldHaveLength, 200)
				So(st.Market.Coaches, ShouldHaveLength, 5)
				for _, r := range st.Market.Recruits {
					So(r.Potential, ShouldBeBetweenOrEqual, 0, 100)
					So(r.SigningDifficulty, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			})

			Convey("Then the same seed gives the same class", func() {
				again, err := simulate.GenerateClass(cfg)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, st)

				cfg.Seed = 8
				other, err := simulate.GenerateClass(cfg)
				So(err, ShouldBeNil)
				So(other.Market.Recruits, ShouldNotResemble, st.Market.Recruits)
			})
		})

		Convey("Then invalid configurations are refused", func() {
			_, err := simulate.GenerateClass(simulate.ClassConfig{Pool: pool})
			So(errors.Is(err, simulate.ErrInvalidConfig), ShouldBeTrue)
			_, err = simulate.GenerateClass(simulate.ClassConfig{Teams: 1})
			So(errors.Is(err, simulate.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a service loaded with a generated class", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.SyncIntervalMS = 0
		cfg.DecisionWorkers = 1
		svc := service.New(service.WithConfig(cfg))
		class, err := simulate.GenerateClass(simulate.ClassConfig{Teams: 2, Recruits: 20, Pool: pool, Seed: 1})
		So(err, ShouldBeNil)
		_, err = svc.Load(ctx, class)
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		srv := httptest.NewServer(svc.Handler())
		defer srv.Close()

		Convey("When twenty half-grant offers race for a five-grant pool", func() {
			stats, err := simulate.Run(ctx, simulate.Config{
				BaseURL: srv.URL,
				TeamID:  "team-1",
				Offers:  20,
				Share:   0.5,
				Workers: 8,
			})

			Convey("Then exactly ten sign and the ledger stays whole", func() {
				So(err, ShouldBeNil)
				So(stats.Offered, ShouldEqual, 20)
				So(stats.Signed, ShouldEqual, 10)
				So(stats.Insufficient, ShouldEqual, 10)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.UsedShare, ShouldEqual, 5.0)
				So(stats.Repairs, ShouldEqual, 0)
			})
		})

		Convey("When the run is misconfigured", func() {
			_, err := simulate.Run(ctx, simulate.Config{BaseURL: srv.URL})
			So(errors.Is(err, simulate.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the service is unreachable", func() {
			_, err := simulate.Run(ctx, simulate.Config{BaseURL: "http://127.0.0.1:1", TeamID: "team-1", Offers: 1, Share: 0.5})
			So(errors.Is(err, simulate.ErrUnhealthy), ShouldBeTrue)
		})
	})
}
