package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/signingday/internal/adapters/mq/queue"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/negotiation"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Resolver is the slice of the negotiation engine workers need.
type Resolver interface {
	Get(ctx context.Context, id model.NegotiationID) (model.Negotiation, error)
	CompleteNegotiation(ctx context.Context, id model.NegotiationID, accept bool) (model.SignedTarget, error)
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.DecisionRequest
}

// Worker processes decision requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker, waiting for the request in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	decider  Decider
	resolver Resolver
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, decider Decider, resolver Resolver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		decider:  decider,
		resolver: resolver,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logger.OrDefault(w.logger, "worker").Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "decision failed",
					logger.String("negotiation_id", string(r.NegotiationID)),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process decides one request. The negotiation is re-read so stale requests
// (closed, or superseded by a newer offer) act on current state or not at all.
func (w *InMemoryWorker) process(ctx context.Context, r queue.DecisionRequest) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	n, err := w.resolver.Get(ctx, r.NegotiationID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("load %s: %w", r.NegotiationID, err)
	}
	if !n.Status.Open() {
		metrics.RecordWorkerDecision("stale")
		w.logger.Debug(ctx, "negotiation already closed", logger.String("negotiation_id", string(n.ID)))
		return nil
	}

	accept := w.decider.Decide(ctx, n)
	_, err = w.resolver.CompleteNegotiation(ctx, n.ID, accept)
	switch {
	case err == nil:
		outcome := "rejected"
		if accept {
			outcome = "accepted"
		}
		metrics.RecordWorkerDecision(outcome)
		w.logger.Debug(ctx, "negotiation decided",
			logger.String("negotiation_id", string(n.ID)),
			logger.Bool("accepted", accept),
			logger.Int("probability", int(n.AcceptanceProbability)))
		return nil
	case errors.Is(err, negotiation.ErrInsufficientScholarship),
		errors.Is(err, negotiation.ErrRosterFull),
		errors.Is(err, negotiation.ErrTerminal):
		metrics.RecordWorkerDecision("refused")
		w.logger.Warn(ctx, "accept refused, negotiation left open",
			logger.String("negotiation_id", string(n.ID)),
			logger.Error(err))
		return nil
	default:
		metrics.RecordWorkerError()
		return fmt.Errorf("complete %s: %w", n.ID, err)
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, q Queue, decider Decider, resolver Resolver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, decider, resolver, wopts...)
	}
	probe := &InMemoryWorker{}
	for _, opt := range opts {
		opt(probe)
	}
	p.logger = logger.OrDefault(probe.logger, "worker-pool")

	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		close(w.shutdown)
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
