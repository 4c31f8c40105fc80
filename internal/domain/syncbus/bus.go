package syncbus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

// Handler consumes an event. A returned error or a panic is logged and
// counted; it never stops delivery to the remaining handlers.
type Handler func(ctx context.Context, ev Event) error

// SubscriptionID identifies a subscription.
type SubscriptionID uint64

type subscription struct {
	id       SubscriptionID
	typ      EventType
	priority int32
	handler  Handler
}

// Bus dispatches events synchronously in descending subscriber priority,
// ties broken by subscription order.
type Bus struct {
	mu     sync.RWMutex
	byType map[EventType][]*subscription // each slice kept sorted
	nextID SubscriptionID
	closed bool

	store  repository.Store
	ids    ids.Generator
	clock  ids.Clock
	logger logger.Logger

	// periodic consistency check
	checkMu  sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	interval time.Duration
	inPass   atomic.Int32 // scheduled passes in flight
}

// New constructs a bus whose consistency pass reads from store.
func New(store repository.Store, opts ...Option) *Bus {
	b := &Bus{
		byType: make(map[EventType][]*subscription),
		store:  store,
		ids:    ids.NewSequence("evt"),
		clock:  ids.SystemClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logger.OrDefault(b.logger, "syncbus")
	return b
}

// Subscribe registers handler for eventType, or for every type with EventAny.
func (b *Bus) Subscribe(eventType EventType, handler Handler, priority int32) (SubscriptionID, error) {
	if eventType != EventAny && !eventType.Valid() {
		return 0, fmt.Errorf("subscribe %q: %w", eventType, ErrInvalidEventType)
	}
	if handler == nil {
		return 0, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	b.nextID++
	sub := &subscription{id: b.nextID, typ: eventType, priority: priority, handler: handler}
	subs := append(b.byType[eventType], sub)
	// Stable sort keeps subscription order among equal priorities.
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].priority > subs[j].priority })
	b.byType[eventType] = subs
	metrics.UpdateBusSubscribers(b.countLocked())
	return sub.id, nil
}

// Unsubscribe removes a subscription and reports whether it existed.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for typ, subs := range b.byType {
		for i, s := range subs {
			if s.id != id {
				continue
			}
			b.byType[typ] = append(subs[:i:i], subs[i+1:]...)
			metrics.UpdateBusSubscribers(b.countLocked())
			return true
		}
	}
	return false
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.countLocked()
}

func (b *Bus) countLocked() int {
	n := 0
	for _, subs := range b.byType {
		n += len(subs)
	}
	return n
}

// Publish stamps a new local event and dispatches it.
func (b *Bus) Publish(ctx context.Context, eventType EventType, payload any) (PublishReport, error) {
	if !eventType.Valid() {
		return PublishReport{}, fmt.Errorf("publish %q: %w", eventType, ErrInvalidEventType)
	}
	return b.Dispatch(ctx, Event{
		ID:        b.ids.NewID(),
		Type:      eventType,
		Payload:   payload,
		Priority:  DefaultPriority(eventType),
		Timestamp: b.clock.Now(),
		Origin:    OriginLocal,
	})
}

// Dispatch delivers an already stamped event, as received from another
// instance.
func (b *Bus) Dispatch(ctx context.Context, ev Event) (PublishReport, error) {
	if !ev.Type.Valid() {
		return PublishReport{}, fmt.Errorf("dispatch %q: %w", ev.Type, ErrInvalidEventType)
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return PublishReport{}, ErrClosed
	}
	handlers := mergeByPriority(b.byType[ev.Type], b.byType[EventAny])
	b.mu.RUnlock()

	start := time.Now()
	report := PublishReport{EventID: ev.ID}
	for _, s := range handlers {
		if err := b.invoke(ctx, s, ev); err != nil {
			report.Failed++
			metrics.RecordBusHandlerFailure(string(ev.Type))
			b.logger.Error(ctx, "event handler failed",
				logger.String("event_id", ev.ID),
				logger.String("event_type", string(ev.Type)),
				logger.Int64("subscription_id", int64(s.id)),
				logger.Error(err))
			continue
		}
		report.Delivered++
	}

	metrics.RecordBusPublish(string(ev.Type))
	metrics.RecordBusDispatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	return report, nil
}

func (b *Bus) invoke(ctx context.Context, s *subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler(ctx, ev)
}

// mergeByPriority merges two sorted subscription lists into a new slice,
// ordered by priority descending and then by subscription ID.
func mergeByPriority(a, b []*subscription) []*subscription {
	out := make([]*subscription, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].priority > b[j].priority || (a[i].priority == b[j].priority && a[i].id < b[j].id) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Close stops the periodic check and refuses further subscriptions and
// publishes.
func (b *Bus) Close() error {
	b.StopPeriodicSyncCheck()
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
