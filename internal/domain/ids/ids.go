// Package ids provides injectable identifier generators and clocks so that
// negotiation and event identities are reproducible in tests.
package ids

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique identifiers.
type Generator interface {
	NewID() string
}

// Sequence is a monotonic, prefixed generator. The first ID is prefix-1.
type Sequence struct {
	prefix string
	seq    atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// NewSequenceAt creates a sequence resuming after start.
func NewSequenceAt(prefix string, start int64) *Sequence {
	s := &Sequence{prefix: prefix}
	s.seq.Store(start)
	return s
}

// NewID returns the next identifier.
func (s *Sequence) NewID() string {
	return s.prefix + "-" + strconv.FormatInt(s.seq.Add(1), 10)
}

// Current returns the last issued sequence number.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}

// UUID generates random version 4 identifiers.
type UUID struct {
	prefix string
}

// NewUUID creates a UUID generator; prefix may be empty.
func NewUUID(prefix string) UUID {
	return UUID{prefix: prefix}
}

// NewID returns a fresh UUID, prefixed when a prefix was configured.
func (u UUID) NewID() string {
	if u.prefix == "" {
		return uuid.NewString()
	}
	return u.prefix + "-" + uuid.NewString()
}

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// StepClock returns start, start+step, start+2*step, ... on successive calls.
type StepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewStepClock creates a deterministic clock.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{next: start, step: step}
}

// Now returns the next timestamp.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
