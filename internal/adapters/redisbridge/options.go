package redisbridge

import (
	"github.com/okian/signingday/internal/domain/dedupe"
	"github.com/okian/signingday/pkg/logger"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithDeduper sets the set of remote event keys already dispatched.
func WithDeduper(d dedupe.Deduper) Option {
	return func(b *Bridge) {
		if d != nil {
			b.seen = d
		}
	}
}

// WithLogger sets the bridge logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}
