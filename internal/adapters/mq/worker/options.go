// Package worker decides AI teams' negotiations off the decision queue.
package worker

import (
	"github.com/okian/signingday/pkg/logger"
)

// Option applies a configuration option to an InMemoryWorker. Options passed
// to NewPool apply to every worker in it.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
