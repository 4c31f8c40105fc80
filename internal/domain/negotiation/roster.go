package negotiation

import (
	"context"
	"fmt"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/syncbus"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

// ReleaseReason is why a signed player leaves the roster.
type ReleaseReason string

const (
	// ReasonReleased returns the player to the available pool.
	ReasonReleased ReleaseReason = "released"
	// ReasonGraduated removes the player for good.
	ReasonGraduated ReleaseReason = "graduated"
)

// ReleasePlayer removes a signed player and destroys their award.
func (e *Engine) ReleasePlayer(ctx context.Context, teamID, playerID string, reason ReleaseReason) error {
	if reason != ReasonReleased && reason != ReasonGraduated {
		err := fmt.Errorf("%w: %q", ErrInvalidReleaseReason, reason)
		e.fail(ctx, "release", err)
		return err
	}

	var ev RosterEvent
	err := e.store.WithTeam(ctx, teamID, func(tx repository.Tx) error {
		removed, err := tx.ReleasePlayer(playerID, reason == ReasonReleased)
		if err != nil {
			return err
		}
		old := ledger.FromRoster([]model.RosterEntry{removed})[0].Share
		l := ledger.ForRoster(tx.Team().Pool, tx.Roster())
		ev = RosterEvent{
			TeamID:    teamID,
			PlayerID:  playerID,
			Reason:    reason,
			OldShare:  old,
			UsedShare: l.UsedShare(),
		}
		metrics.UpdateLedgerShare(teamID, l.UsedShare(), l.AvailableShare())
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		e.fail(ctx, "release", err)
		return err
	}

	metrics.RecordAwardEvent(string(reason))
	e.logger.Info(ctx, "player left roster",
		logger.String("team_id", teamID),
		logger.String("player_id", playerID),
		logger.String("reason", string(reason)))
	e.emit(ctx, syncbus.EventPlayerReleased, ev)
	return nil
}

// RenegotiateAward changes a signed player's share. Capacity is checked with
// the player's current share given back first.
func (e *Engine) RenegotiateAward(ctx context.Context, teamID, playerID string, newShare float64) (model.ScholarshipAward, error) {
	var (
		award model.ScholarshipAward
		ev    RosterEvent
	)
	err := e.store.WithTeam(ctx, teamID, func(tx repository.Tx) error {
		pool := tx.Team().Pool
		if !finite(newShare) || newShare <= 0 || newShare > 1 {
			return fmt.Errorf("%w: award share %v outside (0, 1]", ErrInvalidOffer, newShare)
		}

		roster := tx.Roster()
		var current *model.RosterEntry
		for i := range roster {
			if roster[i].PlayerID == playerID {
				current = &roster[i]
				break
			}
		}
		if current == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}

		old := ledger.FromRoster([]model.RosterEntry{*current})[0].Share
		l := ledger.ForRoster(pool, roster)
		if aff := l.CanAffordChange(old, newShare); !aff.Allowed {
			return &CapacityError{
				Op:        "renegotiate award",
				TeamID:    teamID,
				Requested: newShare,
				Available: ledger.SumShares(l.AvailableShare(), old),
				Deficit:   aff.Deficit,
			}
		}

		var err error
		award, err = tx.SetShare(playerID, newShare)
		if err != nil {
			return err
		}
		after := ledger.ForRoster(pool, tx.Roster())
		ev = RosterEvent{
			TeamID:    teamID,
			PlayerID:  playerID,
			OldShare:  old,
			NewShare:  newShare,
			Level:     ledger.Classify(newShare, e.thresholds),
			UsedShare: after.UsedShare(),
		}
		metrics.UpdateLedgerShare(teamID, after.UsedShare(), after.AvailableShare())
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		e.fail(ctx, "renegotiate", err)
		return model.ScholarshipAward{}, err
	}

	metrics.RecordAwardEvent("renegotiated")
	e.logger.Info(ctx, "award renegotiated",
		logger.String("team_id", teamID),
		logger.String("player_id", playerID),
		logger.Float64("old_share", ev.OldShare),
		logger.Float64("new_share", newShare))
	e.emit(ctx, syncbus.EventAwardRenegotiated, ev)
	return award, nil
}
