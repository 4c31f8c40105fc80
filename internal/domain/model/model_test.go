package model_test

import (
	"testing"

	"github.com/okian/signingday/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOfferUnion(t *testing.T) {
	Convey("Given the two offer variants", t, func() {
		var player model.Offer = model.PlayerOffer{ScholarshipShare: 0.5, PlayingTimeGuarantee: 20}
		var coach model.Offer = model.CoachOffer{Salary: 100, Bonus: 10}

		Convey("Then each reports its target kind", func() {
			So(player.Kind(), ShouldEqual, model.TargetPlayer)
			So(coach.Kind(), ShouldEqual, model.TargetCoach)
		})

		Convey("Then only player offers request a share", func() {
			So(model.OfferShare(player), ShouldEqual, 0.5)
			So(model.OfferShare(coach), ShouldEqual, 0)
			So(model.OfferShare(nil), ShouldEqual, 0)
		})
	})
}

func TestTargetKind(t *testing.T) {
	Convey("Given target kind strings", t, func() {
		Convey("When parsing known kinds", func() {
			p, errP := model.ParseTargetKind("player")
			c, errC := model.ParseTargetKind("coach")

			Convey("Then they parse", func() {
				So(errP, ShouldBeNil)
				So(errC, ShouldBeNil)
				So(p, ShouldEqual, model.TargetPlayer)
				So(c, ShouldEqual, model.TargetCoach)
			})
		})

		Convey("When parsing an unknown kind", func() {
			_, err := model.ParseTargetKind("trainer")

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestStatusAndNegotiation(t *testing.T) {
	Convey("Given negotiation statuses", t, func() {
		Convey("Then open and terminal are complementary", func() {
			for _, s := range []model.Status{model.StatusActive, model.StatusCounterPending} {
				So(s.Open(), ShouldBeTrue)
				So(s.Terminal(), ShouldBeFalse)
			}
			for _, s := range []model.Status{model.StatusAccepted, model.StatusRejected, model.StatusWithdrawn} {
				So(s.Open(), ShouldBeFalse)
				So(s.Terminal(), ShouldBeTrue)
			}
		})

		Convey("When cloning a negotiation", func() {
			n := model.Negotiation{History: []model.Offer{model.PlayerOffer{ScholarshipShare: 0.25}}}
			c := n.Clone()
			c.History[0] = model.PlayerOffer{ScholarshipShare: 1}

			Convey("Then the history is not shared", func() {
				So(model.OfferShare(n.History[0]), ShouldEqual, 0.25)
			})
		})

		Convey("Then round exhaustion is advisory", func() {
			So(model.Negotiation{Round: 5, MaxRounds: 5}.RoundsExhausted(), ShouldBeTrue)
			So(model.Negotiation{Round: 4, MaxRounds: 5}.RoundsExhausted(), ShouldBeFalse)
			So(model.Negotiation{Round: 9}.RoundsExhausted(), ShouldBeFalse)
		})
	})
}

func TestRosterEntryLegacy(t *testing.T) {
	Convey("Given roster entries", t, func() {
		share := 0.5
		So(model.RosterEntry{PlayerID: "p1"}.Legacy(), ShouldBeTrue)
		So(model.RosterEntry{PlayerID: "p2", Share: &share}.Legacy(), ShouldBeFalse)
	})
}
