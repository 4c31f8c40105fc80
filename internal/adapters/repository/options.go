package repository

import (
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithDefaultPool sets the grant pool given to teams registered without one.
func WithDefaultPool(p model.GrantPool) Option {
	return func(s *MemoryStore) {
		if p.TotalGrantUnits > 0 {
			s.defaultPool = p
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *MemoryStore) {
		s.logger = l
	}
}
