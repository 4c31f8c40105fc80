package model

// Offer is the terms proposed in one negotiation round. It is a closed union:
// PlayerOffer and CoachOffer are the only implementations, so callers can
// switch exhaustively on the concrete type.
type Offer interface {
	// Kind returns the target kind the offer applies to.
	Kind() TargetKind
	sealed()
}

// PlayerOffer proposes a scholarship share and a playing-time guarantee.
type PlayerOffer struct {
	ScholarshipShare     float64 `json:"scholarship_share" yaml:"scholarship_share"`
	PlayingTimeGuarantee uint32  `json:"playing_time_guarantee" yaml:"playing_time_guarantee"` // minutes per game
}

// CoachOffer proposes a salary and bonus.
type CoachOffer struct {
	Salary float64 `json:"salary" yaml:"salary"`
	Bonus  float64 `json:"bonus" yaml:"bonus"`
}

func (PlayerOffer) Kind() TargetKind { return TargetPlayer }
func (CoachOffer) Kind() TargetKind  { return TargetCoach }

func (PlayerOffer) sealed() {}
func (CoachOffer) sealed()  {}

// OfferShare returns the scholarship share requested by o; coach offers and
// nil request none.
func OfferShare(o Offer) float64 {
	if p, ok := o.(PlayerOffer); ok {
		return p.ScholarshipShare
	}
	return 0
}
