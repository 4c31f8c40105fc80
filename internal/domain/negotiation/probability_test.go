package negotiation_test

import (
	"math"
	"testing"

	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/negotiation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestProbabilityModel(t *testing.T) {
	m := negotiation.ProbabilityModel{MarketRate: 200000}

	Convey("Given a player offer against a hard target", t, func() {
		offer := model.PlayerOffer{ScholarshipShare: 1.0, PlayingTimeGuarantee: 30}
		p := negotiation.Profile{Potential: 85, SigningDifficulty: 0.5, FinalEligibleYear: true}

		Convey("Then every factor contributes", func() {
			// 50 + 20 + 5 - 15 - 10 - 5
			So(m.Initial(offer, p), ShouldEqual, 45)
		})

		Convey("Then each round softens the target by two points", func() {
			So(m.Update(offer, p, 2), ShouldEqual, 49)
			So(m.Update(offer, p, 3), ShouldEqual, 51)
		})
	})

	Convey("Given coach offers around the market rate", t, func() {
		Convey("Then paying the rate is a coin flip and paying more helps", func() {
			So(m.Initial(model.CoachOffer{Salary: 200000}, negotiation.Profile{}), ShouldEqual, 50)
			So(m.Initial(model.CoachOffer{Salary: 300000}, negotiation.Profile{}), ShouldEqual, 60)
			So(m.Initial(model.CoachOffer{Salary: 100000, Bonus: 5000}, negotiation.Profile{}), ShouldEqual, 40)
		})

		Convey("Then a zero market rate falls back to the default", func() {
			zero := negotiation.ProbabilityModel{}
			So(zero.Initial(model.CoachOffer{Salary: negotiation.DefaultMarketRate}, negotiation.Profile{}), ShouldEqual, 50)
		})
	})

	Convey("Given extreme inputs", t, func() {
		Convey("Then results are clamped to [5, 95]", func() {
			So(m.Initial(model.PlayerOffer{ScholarshipShare: 5, PlayingTimeGuarantee: 40}, negotiation.Profile{}), ShouldEqual, 95)
			So(m.Initial(model.PlayerOffer{ScholarshipShare: 0.01}, negotiation.Profile{Potential: 99, SigningDifficulty: 1, FinalEligibleYear: true}), ShouldEqual, 5)
			So(m.Update(model.PlayerOffer{ScholarshipShare: 5, PlayingTimeGuarantee: 40}, negotiation.Profile{}, 1000), ShouldEqual, 95)
			So(m.Initial(model.PlayerOffer{ScholarshipShare: math.NaN()}, negotiation.Profile{}), ShouldEqual, 5)
		})
	})

	Convey("Given the documented input ranges", t, func() {
		shares := []float64{0.05, 0.25, 0.5, 0.75, 1, 2.5, 5}
		minutes := []uint32{0, 10, 20, 30, 40}
		difficulties := []float64{0, 0.3, 0.7, 1}
		potentials := []int{0, 50, 79, 80, 100}

		Convey("Then every estimate is bounded and repeatable", func() {
			for _, s := range shares {
				for _, pt := range minutes {
					for _, d := range difficulties {
						for _, pot := range potentials {
							for _, final := range []bool{false, true} {
								offer := model.PlayerOffer{ScholarshipShare: s, PlayingTimeGuarantee: pt}
								p := negotiation.Profile{Potential: pot, SigningDifficulty: d, FinalEligibleYear: final}
								for round := uint32(1); round <= 6; round++ {
									got := m.Update(offer, p, round)
									So(got >= negotiation.MinProbability && got <= negotiation.MaxProbability, ShouldBeTrue)
									So(m.Update(offer, p, round), ShouldEqual, got)
								}
								first := m.Initial(offer, p)
								So(int(first), ShouldBeBetweenOrEqual, negotiation.MinProbability, negotiation.MaxProbability)
								So(m.Initial(offer, p), ShouldEqual, first)
							}
						}
					}
				}
			}
		})
	})
}
