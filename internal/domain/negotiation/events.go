package negotiation

import (
	"context"

	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/syncbus"
)

// Publisher is the part of the sync bus the engine emits to.
type Publisher interface {
	Publish(ctx context.Context, eventType syncbus.EventType, payload any) (syncbus.PublishReport, error)
}

// NegotiationEvent is the payload of negotiation lifecycle events.
type NegotiationEvent struct {
	NegotiationID model.NegotiationID `json:"negotiation_id"`
	TeamID        string              `json:"team_id"`
	TargetID      string              `json:"target_id"`
	TargetKind    model.TargetKind    `json:"target_kind"`
	Status        model.Status        `json:"status"`
	Round         uint32              `json:"round"`
	Probability   uint8               `json:"probability"`
	Offer         model.Offer         `json:"offer,omitempty"`
	AI            bool                `json:"ai,omitempty"`
}

// SigningEvent is the payload of playerSigned and coachSigned.
type SigningEvent struct {
	NegotiationID model.NegotiationID     `json:"negotiation_id"`
	TeamID        string                  `json:"team_id"`
	Kind          model.TargetKind        `json:"kind"`
	Player        *model.RosterEntry      `json:"player,omitempty"`
	Award         *model.ScholarshipAward `json:"award,omitempty"`
	Coach         *model.StaffEntry       `json:"coach,omitempty"`
	UsedShare     float64                 `json:"used_share"`
}

// RosterEvent is the payload of playerReleased and awardRenegotiated.
type RosterEvent struct {
	TeamID    string        `json:"team_id"`
	PlayerID  string        `json:"player_id"`
	Reason    ReleaseReason `json:"reason,omitempty"`
	OldShare  float64       `json:"old_share"`
	NewShare  float64       `json:"new_share"`
	Level     model.Level   `json:"level,omitempty"`
	UsedShare float64       `json:"used_share"`
}

func negotiationEvent(n *model.Negotiation, ai bool) NegotiationEvent {
	return NegotiationEvent{
		NegotiationID: n.ID,
		TeamID:        n.TeamID,
		TargetID:      n.TargetID,
		TargetKind:    n.TargetKind,
		Status:        n.Status,
		Round:         n.Round,
		Probability:   n.AcceptanceProbability,
		Offer:         n.CurrentOffer,
		AI:            ai,
	}
}
