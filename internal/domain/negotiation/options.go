package negotiation

import (
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where events go. Without one, events are dropped.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.bus = p
	}
}

// WithIDGenerator sets the negotiation ID generator.
func WithIDGenerator(g ids.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithAwardIDGenerator sets the award ID generator.
func WithAwardIDGenerator(g ids.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.awardIDs = g
		}
	}
}

// WithClock sets the timestamp source.
func WithClock(c ids.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithMarketRate sets the coach reference salary.
func WithMarketRate(rate float64) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.model.MarketRate = rate
		}
	}
}

// WithMaxRounds sets the advisory round budget stamped on new negotiations.
func WithMaxRounds(n uint32) Option {
	return func(e *Engine) {
		e.maxRounds = n
	}
}

// WithCounterThreshold sets the probability below which an updated
// negotiation waits for a counter-offer.
func WithCounterThreshold(p uint8) Option {
	return func(e *Engine) {
		e.counterThreshold = p
	}
}

// WithLevelThresholds sets the display thresholds used in event payloads.
func WithLevelThresholds(th model.LevelThresholds) Option {
	return func(e *Engine) {
		e.thresholds = th
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}
