// Package negotiation runs the per-target offer/counter-offer state machine
// and commits accepted signings against the team's scholarship ledger.
package negotiation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/syncbus"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

// MaxPlayingTime is the largest playing-time guarantee, in minutes per game.
const MaxPlayingTime = 40

type pairKey struct {
	teamID   string
	targetID string
	kind     model.TargetKind
}

type entry struct {
	n       model.Negotiation
	profile Profile
	ai      bool
}

// Engine owns every negotiation of a session.
//
// Lock order: e.mu, then a team's store lock. Events are published only
// after e.mu is released.
type Engine struct {
	mu      sync.Mutex
	byID    map[model.NegotiationID]*entry
	open    map[pairKey]model.NegotiationID
	order   []model.NegotiationID // creation order
	archive []model.NegotiationID // order of reaching a terminal state

	store            repository.Store
	bus              Publisher
	ids              ids.Generator
	awardIDs         ids.Generator
	clock            ids.Clock
	model            ProbabilityModel
	maxRounds        uint32
	counterThreshold uint8
	thresholds       model.LevelThresholds
	logger           logger.Logger
}

// New constructs an engine over store.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		byID:             make(map[model.NegotiationID]*entry),
		open:             make(map[pairKey]model.NegotiationID),
		store:            store,
		ids:              ids.NewSequence("neg"),
		awardIDs:         ids.NewSequence("award"),
		clock:            ids.SystemClock{},
		model:            ProbabilityModel{MarketRate: DefaultMarketRate},
		maxRounds:        5,
		counterThreshold: 40,
		thresholds:       model.DefaultLevelThresholds,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrDefault(e.logger, "negotiation")
	return e
}

// Model returns the probability model in use.
func (e *Engine) Model() ProbabilityModel { return e.model }

// StartNegotiation opens a negotiation for an unsigned target at round 1.
func (e *Engine) StartNegotiation(ctx context.Context, teamID, targetID string, kind model.TargetKind, offer model.Offer) (model.NegotiationID, error) {
	ev, err := e.start(ctx, teamID, targetID, kind, offer)
	if err != nil {
		e.fail(ctx, "start", err)
		return "", err
	}
	metrics.RecordNegotiationStarted(string(kind))
	metrics.ObserveAcceptanceProbability(ev.Probability)
	e.logger.Info(ctx, "negotiation started",
		logger.String("negotiation_id", string(ev.NegotiationID)),
		logger.String("team_id", teamID),
		logger.String("target_id", targetID),
		logger.Int("probability", int(ev.Probability)))
	e.emit(ctx, syncbus.EventNegotiationStarted, ev)
	return ev.NegotiationID, nil
}

func (e *Engine) start(ctx context.Context, teamID, targetID string, kind model.TargetKind, offer model.Offer) (NegotiationEvent, error) {
	if !kind.Valid() {
		return NegotiationEvent{}, fmt.Errorf("%w: unknown target kind %q", ErrInvalidOffer, kind)
	}
	team, err := e.team(ctx, teamID)
	if err != nil {
		return NegotiationEvent{}, err
	}
	if err := validateOffer(kind, offer, team.Pool); err != nil {
		return NegotiationEvent{}, err
	}

	var profile Profile
	switch kind {
	case model.TargetPlayer:
		r, err := e.store.Recruit(ctx, targetID)
		if err != nil {
			return NegotiationEvent{}, mapStoreErr(err)
		}
		profile = ProfileOf(r)
	case model.TargetCoach:
		if _, err := e.store.Coach(ctx, targetID); err != nil {
			return NegotiationEvent{}, mapStoreErr(err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := pairKey{teamID: teamID, targetID: targetID, kind: kind}
	if existing, ok := e.open[key]; ok {
		return NegotiationEvent{}, fmt.Errorf("%w: %s", ErrNegotiationExists, existing)
	}

	id := model.NegotiationID(e.ids.NewID())
	for e.byID[id] != nil {
		id = model.NegotiationID(e.ids.NewID())
	}
	now := e.clock.Now()
	ent := &entry{
		n: model.Negotiation{
			ID:                    id,
			TeamID:                teamID,
			TargetID:              targetID,
			TargetKind:            kind,
			Status:                model.StatusActive,
			Round:                 1,
			MaxRounds:             e.maxRounds,
			CurrentOffer:          offer,
			AcceptanceProbability: e.model.Initial(offer, profile),
			History:               []model.Offer{offer},
			CreatedAt:             now,
			UpdatedAt:             now,
		},
		profile: profile,
		ai:      team.AI,
	}
	e.byID[id] = ent
	e.open[key] = id
	e.order = append(e.order, id)
	metrics.UpdateActiveNegotiations(len(e.open))
	return negotiationEvent(&ent.n, ent.ai), nil
}

// UpdateOffer replaces the current offer, advancing the round and returning
// the recomputed probability. When a player offer raises the share, only
// the increase over the current offer must fit the available share; a
// refused offer leaves the negotiation exactly as it was.
func (e *Engine) UpdateOffer(ctx context.Context, id model.NegotiationID, offer model.Offer) (uint8, error) {
	ev, err := e.update(ctx, id, offer)
	if err != nil {
		e.fail(ctx, "update_offer", err)
		return 0, err
	}
	metrics.RecordOfferUpdate(string(ev.TargetKind))
	metrics.ObserveAcceptanceProbability(ev.Probability)
	e.emit(ctx, syncbus.EventOfferUpdated, ev)
	return ev.Probability, nil
}

func (e *Engine) update(ctx context.Context, id model.NegotiationID, offer model.Offer) (NegotiationEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, err := e.openEntry(id)
	if err != nil {
		return NegotiationEvent{}, err
	}
	n := &ent.n
	team, err := e.team(ctx, n.TeamID)
	if err != nil {
		return NegotiationEvent{}, err
	}
	if err := validateOffer(n.TargetKind, offer, team.Pool); err != nil {
		return NegotiationEvent{}, err
	}

	if n.TargetKind == model.TargetPlayer {
		oldShare, newShare := model.OfferShare(n.CurrentOffer), model.OfferShare(offer)
		if newShare > oldShare {
			st, err := e.store.State(ctx, n.TeamID)
			if err != nil {
				return NegotiationEvent{}, mapStoreErr(err)
			}
			l := ledger.ForRoster(team.Pool, st.Roster)
			if aff := l.CanAffordChange(oldShare, newShare); !aff.Allowed {
				return NegotiationEvent{}, &CapacityError{
					Op:        "update offer",
					TeamID:    n.TeamID,
					Requested: ledger.SumShares(newShare, -oldShare),
					Available: l.AvailableShare(),
					Deficit:   aff.Deficit,
				}
			}
		}
	}

	n.Round++
	n.CurrentOffer = offer
	n.History = append(n.History, offer)
	n.AcceptanceProbability = e.model.Update(offer, ent.profile, n.Round)
	n.Status = model.StatusActive
	if n.AcceptanceProbability < e.counterThreshold {
		n.Status = model.StatusCounterPending
	}
	n.UpdatedAt = e.clock.Now()
	if n.RoundsExhausted() {
		e.logger.Debug(ctx, "negotiation past its round budget",
			logger.String("negotiation_id", string(id)),
			logger.Int64("round", int64(n.Round)))
	}
	return negotiationEvent(n, ent.ai), nil
}

// CompleteNegotiation closes a negotiation. A rejection never touches the
// ledger. An acceptance re-validates roster size and grant capacity under
// the team's lock and, if they still hold, moves the target onto the roster;
// if they do not, the negotiation stays open and nothing changes.
func (e *Engine) CompleteNegotiation(ctx context.Context, id model.NegotiationID, accept bool) (model.SignedTarget, error) {
	signed, evType, payload, err := e.complete(ctx, id, accept)
	if err != nil {
		e.fail(ctx, "complete", err)
		return model.SignedTarget{}, err
	}
	e.emit(ctx, evType, payload)
	return signed, nil
}

func (e *Engine) complete(ctx context.Context, id model.NegotiationID, accept bool) (model.SignedTarget, syncbus.EventType, any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, err := e.openEntry(id)
	if err != nil {
		return model.SignedTarget{}, "", nil, err
	}
	n := &ent.n

	if !accept {
		e.closeLocked(ent, model.StatusRejected)
		e.logger.Info(ctx, "negotiation rejected", logger.String("negotiation_id", string(id)))
		return model.SignedTarget{Kind: n.TargetKind, TeamID: n.TeamID}, syncbus.EventNegotiationRejected, negotiationEvent(n, ent.ai), nil
	}

	now := e.clock.Now()
	var (
		signed model.SignedTarget
		used   float64
		avail  float64
	)
	err = e.store.WithTeam(ctx, n.TeamID, func(tx repository.Tx) error {
		pool := tx.Team().Pool
		roster := tx.Roster()
		l := ledger.ForRoster(pool, roster)
		used, avail = l.UsedShare(), l.AvailableShare()

		switch o := n.CurrentOffer.(type) {
		case model.PlayerOffer:
			if pool.RosterSizeMax > 0 && uint32(len(roster)) >= pool.RosterSizeMax {
				return fmt.Errorf("%w: %d of %d places taken", ErrRosterFull, len(roster), pool.RosterSizeMax)
			}
			if aff := l.CanAfford(o.ScholarshipShare); !aff.Allowed {
				return &CapacityError{
					Op:        "complete negotiation",
					TeamID:    n.TeamID,
					Requested: o.ScholarshipShare,
					Available: avail,
					Deficit:   aff.Deficit,
				}
			}
			if o.ScholarshipShare > 1 {
				return fmt.Errorf("%w: award share %.4g exceeds one grant unit", ErrInvalidOffer, o.ScholarshipShare)
			}
			r, err := tx.TakeRecruit(n.TargetID)
			if err != nil {
				return mapStoreErr(err)
			}
			share := o.ScholarshipShare
			award := model.ScholarshipAward{
				ID:            e.awardIDs.NewID(),
				TeamID:        n.TeamID,
				PlayerID:      r.ID,
				Share:         share,
				NegotiationID: string(n.ID),
				CreatedAt:     now,
			}
			rosterEntry := model.RosterEntry{
				PlayerID:    r.ID,
				Name:        r.Name,
				Share:       &share,
				AwardID:     award.ID,
				SignedRound: n.Round,
			}
			tx.SignPlayer(r, rosterEntry, award)
			used = ledger.SumShares(used, share)
			avail = ledger.ForRoster(pool, append(roster, rosterEntry)).AvailableShare()
			signed = model.SignedTarget{Kind: model.TargetPlayer, TeamID: n.TeamID, Player: &rosterEntry, Award: &award}
		case model.CoachOffer:
			c, err := tx.TakeCoach(n.TargetID)
			if err != nil {
				return mapStoreErr(err)
			}
			staff := model.StaffEntry{CoachID: c.ID, Name: c.Name, Role: c.Role, Salary: o.Salary, Bonus: o.Bonus}
			tx.SignCoach(staff)
			signed = model.SignedTarget{Kind: model.TargetCoach, TeamID: n.TeamID, Coach: &staff}
		default:
			return fmt.Errorf("%w: no current offer", ErrInvalidOffer)
		}
		return nil
	})
	if err != nil {
		return model.SignedTarget{}, "", nil, mapStoreErr(err)
	}

	e.closeLocked(ent, model.StatusAccepted)
	metrics.UpdateLedgerShare(n.TeamID, used, avail)

	ev := SigningEvent{
		NegotiationID: n.ID,
		TeamID:        n.TeamID,
		Kind:          signed.Kind,
		Player:        signed.Player,
		Award:         signed.Award,
		Coach:         signed.Coach,
		UsedShare:     used,
	}
	evType := syncbus.EventCoachSigned
	if signed.Kind == model.TargetPlayer {
		evType = syncbus.EventPlayerSigned
		metrics.RecordAwardEvent("created")
	}
	e.logger.Info(ctx, "target signed",
		logger.String("negotiation_id", string(id)),
		logger.String("team_id", n.TeamID),
		logger.String("target_id", n.TargetID),
		logger.Float64("used_share", used))
	return signed, evType, ev, nil
}

// Withdraw abandons an open negotiation.
func (e *Engine) Withdraw(ctx context.Context, id model.NegotiationID) error {
	e.mu.Lock()
	ent, err := e.openEntry(id)
	var ev NegotiationEvent
	if err == nil {
		e.closeLocked(ent, model.StatusWithdrawn)
		ev = negotiationEvent(&ent.n, ent.ai)
	}
	e.mu.Unlock()

	if err != nil {
		e.fail(ctx, "withdraw", err)
		return err
	}
	e.emit(ctx, syncbus.EventNegotiationWithdrawn, ev)
	return nil
}

// Get returns a copy of a negotiation.
func (e *Engine) Get(_ context.Context, id model.NegotiationID) (model.Negotiation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byID[id]
	if !ok {
		return model.Negotiation{}, fmt.Errorf("%w: %s", ErrNegotiationNotFound, id)
	}
	return ent.n.Clone(), nil
}

// IsAI reports whether the negotiation belongs to a computer-managed team.
func (e *Engine) IsAI(id model.NegotiationID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byID[id]
	return ok && ent.ai
}

// ListActive returns open negotiations in creation order. An empty teamID
// lists every team's.
func (e *Engine) ListActive(_ context.Context, teamID string) []model.Negotiation {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.Negotiation
	for _, id := range e.order {
		ent := e.byID[id]
		if ent.n.Status.Open() && (teamID == "" || ent.n.TeamID == teamID) {
			out = append(out, ent.n.Clone())
		}
	}
	return out
}

// Archive returns closed negotiations, most recently closed last. An empty
// teamID lists every team's.
func (e *Engine) Archive(_ context.Context, teamID string) []model.Negotiation {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.Negotiation
	for _, id := range e.archive {
		ent := e.byID[id]
		if teamID == "" || ent.n.TeamID == teamID {
			out = append(out, ent.n.Clone())
		}
	}
	return out
}

// Snapshot returns every negotiation in creation order.
func (e *Engine) Snapshot(_ context.Context) []model.Negotiation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Negotiation, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.byID[id].n.Clone())
	}
	return out
}

// Restore replaces the engine's negotiations, as when loading a save.
// Closed negotiations are archived in the order they were last updated.
func (e *Engine) Restore(ctx context.Context, negotiations []model.Negotiation) error {
	byID := make(map[model.NegotiationID]*entry, len(negotiations))
	open := make(map[pairKey]model.NegotiationID)
	order := make([]model.NegotiationID, 0, len(negotiations))
	var closed []*entry

	for _, n := range negotiations {
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("restore %s: duplicate id: %w", n.ID, ErrNegotiationExists)
		}
		if n.CurrentOffer != nil && n.CurrentOffer.Kind() != n.TargetKind {
			return fmt.Errorf("restore %s: %w: offer kind %s for %s target", n.ID, ErrInvalidOffer, n.CurrentOffer.Kind(), n.TargetKind)
		}
		ent := &entry{n: n.Clone()}
		if team, err := e.store.Team(ctx, n.TeamID); err == nil {
			ent.ai = team.AI
		}
		if n.TargetKind == model.TargetPlayer {
			if r, err := e.store.Recruit(ctx, n.TargetID); err == nil {
				ent.profile = ProfileOf(r)
			}
		}
		if n.Status.Open() {
			key := pairKey{teamID: n.TeamID, targetID: n.TargetID, kind: n.TargetKind}
			if existing, ok := open[key]; ok {
				return fmt.Errorf("restore %s: %w: %s", n.ID, ErrNegotiationExists, existing)
			}
			open[key] = n.ID
		} else {
			closed = append(closed, ent)
		}
		byID[n.ID] = ent
		order = append(order, n.ID)
	}
	sort.SliceStable(closed, func(i, j int) bool { return closed[i].n.UpdatedAt.Before(closed[j].n.UpdatedAt) })
	archive := make([]model.NegotiationID, 0, len(closed))
	for _, ent := range closed {
		archive = append(archive, ent.n.ID)
	}

	e.mu.Lock()
	e.byID, e.open, e.order, e.archive = byID, open, order, archive
	e.mu.Unlock()
	metrics.UpdateActiveNegotiations(len(open))
	e.logger.Info(ctx, "negotiations restored",
		logger.Int("total", len(order)),
		logger.Int("open", len(open)))
	return nil
}

func (e *Engine) openEntry(id model.NegotiationID) (*entry, error) {
	ent, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNegotiationNotFound, id)
	}
	if ent.n.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTerminal, id, ent.n.Status)
	}
	return ent, nil
}

// closeLocked moves ent to a terminal status. Caller holds e.mu.
func (e *Engine) closeLocked(ent *entry, status model.Status) {
	ent.n.Status = status
	ent.n.UpdatedAt = e.clock.Now()
	delete(e.open, pairKey{teamID: ent.n.TeamID, targetID: ent.n.TargetID, kind: ent.n.TargetKind})
	e.archive = append(e.archive, ent.n.ID)
	metrics.UpdateActiveNegotiations(len(e.open))
	metrics.RecordNegotiationCompleted(string(ent.n.TargetKind), string(status))
}

func (e *Engine) team(ctx context.Context, teamID string) (model.Team, error) {
	team, err := e.store.Team(ctx, teamID)
	if err != nil {
		return model.Team{}, mapStoreErr(err)
	}
	return team, nil
}

func (e *Engine) emit(ctx context.Context, t syncbus.EventType, payload any) {
	if e.bus == nil {
		return
	}
	if _, err := e.bus.Publish(ctx, t, payload); err != nil {
		e.logger.Warn(ctx, "event not published", logger.String("event_type", string(t)), logger.Error(err))
	}
}

func (e *Engine) fail(ctx context.Context, op string, err error) {
	kind := errorKind(err)
	metrics.RecordNegotiationError(op, kind)
	if errors.Is(err, ErrInsufficientScholarship) {
		metrics.RecordInsufficientScholarship(op)
	}
	e.logger.Debug(ctx, "negotiation operation refused",
		logger.String("operation", op),
		logger.String("kind", kind),
		logger.Error(err))
}

// mapStoreErr translates store sentinels into engine sentinels; other errors
// pass through.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrTargetNotFound):
		return fmt.Errorf("%w: %v", ErrTargetNotFound, err)
	case errors.Is(err, repository.ErrTeamNotFound):
		return fmt.Errorf("%w: %v", ErrTeamNotFound, err)
	case errors.Is(err, repository.ErrPlayerNotFound):
		return fmt.Errorf("%w: %v", ErrPlayerNotFound, err)
	default:
		return err
	}
}

func validateOffer(kind model.TargetKind, offer model.Offer, pool model.GrantPool) error {
	if offer == nil {
		return fmt.Errorf("%w: missing offer", ErrInvalidOffer)
	}
	if offer.Kind() != kind {
		return fmt.Errorf("%w: %s offer for %s target", ErrInvalidOffer, offer.Kind(), kind)
	}
	switch o := offer.(type) {
	case model.PlayerOffer:
		if !finite(o.ScholarshipShare) || o.ScholarshipShare <= 0 || o.ScholarshipShare > pool.TotalGrantUnits {
			return fmt.Errorf("%w: scholarship share %v outside (0, %v]", ErrInvalidOffer, o.ScholarshipShare, pool.TotalGrantUnits)
		}
		if o.PlayingTimeGuarantee > MaxPlayingTime {
			return fmt.Errorf("%w: playing time %d over %d minutes", ErrInvalidOffer, o.PlayingTimeGuarantee, MaxPlayingTime)
		}
	case model.CoachOffer:
		if !finite(o.Salary) || o.Salary <= 0 {
			return fmt.Errorf("%w: salary %v must be positive", ErrInvalidOffer, o.Salary)
		}
		if !finite(o.Bonus) || o.Bonus < 0 {
			return fmt.Errorf("%w: bonus %v must not be negative", ErrInvalidOffer, o.Bonus)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
