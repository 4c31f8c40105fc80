// Package dedupe tracks recently seen event IDs so that events fanned out to
// other instances are not replayed when they echo back.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so that a failed delivery can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps the most recent maxSize IDs and evicts the oldest
// first. A non-positive maxSize disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> insertion sequence
	order   []string          // ring buffer of ids in insertion order
	seqs    []uint64          // insertion sequence per ring slot
	head    int               // oldest slot
	count   int               // occupied slots
	nextSeq uint64
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
		d.seqs = make([]uint64, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	d.nextSeq++
	if d.maxSize > 0 {
		if d.count == d.maxSize {
			d.popOldest()
		}
		slot := (d.head + d.count) % d.maxSize
		d.order[slot] = id
		d.seqs[slot] = d.nextSeq
		d.count++
	}
	d.seen[id] = d.nextSeq
	d.size.Store(int64(len(d.seen)))
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// The ring slot is left behind as a tombstone; popOldest ignores slots
	// whose sequence no longer matches the map.
	delete(d.seen, id)
	d.size.Store(int64(len(d.seen)))
}

// popOldest frees the oldest ring slot, forgetting its id unless the slot is
// a tombstone. Caller holds d.mu.
func (d *inMemoryDeduper) popOldest() {
	id, seq := d.order[d.head], d.seqs[d.head]
	d.order[d.head] = ""
	d.head = (d.head + 1) % d.maxSize
	d.count--
	if cur, ok := d.seen[id]; ok && cur == seq {
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
