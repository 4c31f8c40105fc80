package worker

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/okian/signingday/internal/domain/model"
)

// Decider chooses whether an AI target accepts the current offer.
type Decider interface {
	Decide(ctx context.Context, n model.Negotiation) bool
}

// RandomDecider accepts with the negotiation's advisory probability. The same
// seed replays the same sequence of decisions.
type RandomDecider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDecider seeds a decider.
func NewRandomDecider(seed uint64) *RandomDecider {
	return &RandomDecider{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Decide rolls 0..99 against the acceptance probability.
func (d *RandomDecider) Decide(_ context.Context, n model.Negotiation) bool {
	d.mu.Lock()
	roll := d.rng.IntN(100)
	d.mu.Unlock()
	return roll < int(n.AcceptanceProbability)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, n model.Negotiation) bool

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, n model.Negotiation) bool { return f(ctx, n) }
