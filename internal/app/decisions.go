package service

import (
	"context"
	"time"

	eventqueue "github.com/okian/signingday/internal/adapters/mq/queue"
	"github.com/okian/signingday/internal/domain/negotiation"
	"github.com/okian/signingday/internal/domain/syncbus"
	"github.com/okian/signingday/pkg/logger"
)

// decisionHandler queues a decision for every new or updated offer made by
// an AI-managed team. Events relayed from other instances are left to the
// instance that owns the negotiation.
func (s *Service) decisionHandler(q *eventqueue.InMemoryQueue) syncbus.Handler {
	return func(ctx context.Context, ev syncbus.Event) error {
		if ev.Origin != syncbus.OriginLocal {
			return nil
		}
		if ev.Type != syncbus.EventNegotiationStarted && ev.Type != syncbus.EventOfferUpdated {
			return nil
		}
		p, ok := ev.Payload.(negotiation.NegotiationEvent)
		if !ok || !p.AI || !p.Status.Open() {
			return nil
		}

		req := eventqueue.DecisionRequest{
			NegotiationID: p.NegotiationID,
			Probability:   p.Probability,
			RequestedAt:   time.Now(),
		}
		if q.Enqueue(ctx, req) {
			return nil
		}
		reason := eventqueue.ErrFull
		if q.IsClosed() {
			reason = eventqueue.ErrClosed
		}
		s.logger.Warn(ctx, "decision request dropped",
			logger.String("negotiation_id", string(p.NegotiationID)),
			logger.String("team_id", p.TeamID),
			logger.Error(reason))
		return nil
	}
}
