package api

import (
	"fmt"
	"time"

	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
)

// offerBody is the wire form of both offer variants; which fields apply
// depends on the target kind.
type offerBody struct {
	ScholarshipShare     *float64 `json:"scholarship_share,omitempty"`
	PlayingTimeGuarantee *uint32  `json:"playing_time_guarantee,omitempty"`
	Salary               *float64 `json:"salary,omitempty"`
	Bonus                *float64 `json:"bonus,omitempty"`
}

// toOffer builds the variant for kind. Fields of the other variant are
// rejected rather than ignored.
func (b *offerBody) toOffer(kind model.TargetKind) (model.Offer, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: missing offer", ErrBadRequest)
	}
	switch kind {
	case model.TargetPlayer:
		if b.Salary != nil || b.Bonus != nil {
			return nil, fmt.Errorf("%w: salary and bonus apply to coaches", ErrBadRequest)
		}
		if b.ScholarshipShare == nil {
			return nil, fmt.Errorf("%w: missing scholarship_share", ErrBadRequest)
		}
		o := model.PlayerOffer{ScholarshipShare: *b.ScholarshipShare}
		if b.PlayingTimeGuarantee != nil {
			o.PlayingTimeGuarantee = *b.PlayingTimeGuarantee
		}
		return o, nil
	case model.TargetCoach:
		if b.ScholarshipShare != nil || b.PlayingTimeGuarantee != nil {
			return nil, fmt.Errorf("%w: scholarship terms apply to players", ErrBadRequest)
		}
		if b.Salary == nil {
			return nil, fmt.Errorf("%w: missing salary", ErrBadRequest)
		}
		o := model.CoachOffer{Salary: *b.Salary}
		if b.Bonus != nil {
			o.Bonus = *b.Bonus
		}
		return o, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrBadRequest, kind)
	}
}

type offerView struct {
	Kind                 model.TargetKind `json:"kind"`
	ScholarshipShare     float64          `json:"scholarship_share,omitempty"`
	PlayingTimeGuarantee uint32           `json:"playing_time_guarantee,omitempty"`
	Salary               float64          `json:"salary,omitempty"`
	Bonus                float64          `json:"bonus,omitempty"`
}

func viewOffer(o model.Offer) *offerView {
	switch v := o.(type) {
	case model.PlayerOffer:
		return &offerView{Kind: model.TargetPlayer, ScholarshipShare: v.ScholarshipShare, PlayingTimeGuarantee: v.PlayingTimeGuarantee}
	case model.CoachOffer:
		return &offerView{Kind: model.TargetCoach, Salary: v.Salary, Bonus: v.Bonus}
	}
	return nil
}

type negotiationView struct {
	ID                    model.NegotiationID `json:"id"`
	TeamID                string              `json:"team_id"`
	TargetID              string              `json:"target_id"`
	TargetKind            model.TargetKind    `json:"target_kind"`
	Status                model.Status        `json:"status"`
	Round                 uint32              `json:"round"`
	MaxRounds             uint32              `json:"max_rounds"`
	RoundsExhausted       bool                `json:"rounds_exhausted"`
	AcceptanceProbability uint8               `json:"acceptance_probability"`
	CurrentOffer          *offerView          `json:"current_offer"`
	History               []*offerView        `json:"history"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

func viewNegotiation(n model.Negotiation) negotiationView {
	v := negotiationView{
		ID:                    n.ID,
		TeamID:                n.TeamID,
		TargetID:              n.TargetID,
		TargetKind:            n.TargetKind,
		Status:                n.Status,
		Round:                 n.Round,
		MaxRounds:             n.MaxRounds,
		RoundsExhausted:       n.RoundsExhausted(),
		AcceptanceProbability: n.AcceptanceProbability,
		CurrentOffer:          viewOffer(n.CurrentOffer),
		History:               make([]*offerView, 0, len(n.History)),
		CreatedAt:             n.CreatedAt,
		UpdatedAt:             n.UpdatedAt,
	}
	for _, h := range n.History {
		v.History = append(v.History, viewOffer(h))
	}
	return v
}

type awardView struct {
	model.ScholarshipAward
	Level model.Level `json:"level"`
}

func viewAward(a model.ScholarshipAward, th model.LevelThresholds) awardView {
	return awardView{ScholarshipAward: a, Level: ledger.Classify(a.Share, th)}
}

type ledgerView struct {
	TeamID   string              `json:"team_id"`
	Summary  ledger.Summary      `json:"summary"`
	Counters model.Counters      `json:"counters"`
	Roster   []model.RosterEntry `json:"roster"`
	Awards   []awardView         `json:"awards"`
	Staff    []model.StaffEntry  `json:"staff"`
}
