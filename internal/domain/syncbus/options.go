package syncbus

import (
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/pkg/logger"
)

// Option configures a Bus.
type Option func(*Bus)

// WithIDGenerator sets the event ID generator.
func WithIDGenerator(g ids.Generator) Option {
	return func(b *Bus) {
		if g != nil {
			b.ids = g
		}
	}
}

// WithClock sets the event timestamp source.
func WithClock(c ids.Clock) Option {
	return func(b *Bus) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithLogger sets the bus logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}
