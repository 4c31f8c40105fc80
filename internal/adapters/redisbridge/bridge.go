// Package redisbridge fans SyncBus events out to other instances over Redis
// pub/sub and replays theirs onto the local bus.
package redisbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/signingday/internal/domain/dedupe"
	"github.com/okian/signingday/internal/domain/syncbus"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

// ChannelName returns the pub/sub channel shared by every instance of a
// deployment.
func ChannelName(instance string) string {
	return fmt.Sprintf("signingday:%s:sync_events", instance)
}

// Message is the wire form of a bus event.
type Message struct {
	ID        string            `json:"id"`
	Type      syncbus.EventType `json:"type"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Priority  int32             `json:"priority"`
	Timestamp time.Time         `json:"timestamp"`
	Origin    string            `json:"origin"`
}

// Bus is what the bridge needs from the local SyncBus.
type Bus interface {
	Subscribe(eventType syncbus.EventType, handler syncbus.Handler, priority int32) (syncbus.SubscriptionID, error)
	Unsubscribe(id syncbus.SubscriptionID) bool
	Dispatch(ctx context.Context, ev syncbus.Event) (syncbus.PublishReport, error)
}

// Bridge connects one local bus to the deployment channel.
type Bridge struct {
	rdb      redis.UniversalClient
	bus      Bus
	instance string
	channel  string
	seen     dedupe.Deduper
	logger   logger.Logger

	mu     sync.Mutex
	subID  syncbus.SubscriptionID
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a bridge. instance names this process on the wire; the channel
// is shared by every process using the same deployment name.
func New(rdb redis.UniversalClient, bus Bus, deployment, instance string, opts ...Option) (*Bridge, error) {
	if instance == "" || deployment == "" {
		return nil, ErrNoInstance
	}
	b := &Bridge{
		rdb:      rdb,
		bus:      bus,
		instance: instance,
		channel:  ChannelName(deployment),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.seen == nil {
		b.seen = dedupe.NewInMemoryDeduper()
	}
	b.logger = logger.OrDefault(b.logger, "redisbridge")
	return b, nil
}

// Channel returns the channel the bridge publishes to.
func (b *Bridge) Channel() string { return b.channel }

// Start forwards local events and consumes remote ones in the background
// until Close or ctx is done. The Redis subscription is confirmed before
// Start returns.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return ErrStarted
	}

	ps, err := b.subscribe(ctx)
	if err != nil {
		return err
	}
	subID, err := b.bus.Subscribe(syncbus.EventAny, b.forward, math.MinInt32)
	if err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis bridge: subscribe to bus: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.subID, b.cancel = subID, cancel
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer ps.Close()
		_ = b.consume(runCtx, ps)
	}()
	b.logger.Info(ctx, "redis bridge started",
		logger.String("channel", b.channel),
		logger.String("instance", b.instance))
	return nil
}

// Listen consumes remote events in the foreground until ctx is done. It
// does not forward local events.
func (b *Bridge) Listen(ctx context.Context) error {
	ps, err := b.subscribe(ctx)
	if err != nil {
		return err
	}
	defer ps.Close()
	return b.consume(ctx, ps)
}

// Close stops forwarding and consuming.
func (b *Bridge) Close() error {
	b.mu.Lock()
	cancel := b.cancel
	subID := b.subID
	b.cancel, b.subID = nil, 0
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	b.bus.Unsubscribe(subID)
	cancel()
	b.wg.Wait()
	return nil
}

func (b *Bridge) subscribe(ctx context.Context) (*redis.PubSub, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis bridge: subscribe %s: %w", b.channel, err)
	}
	return ps, nil
}

func (b *Bridge) consume(ctx context.Context, ps *redis.PubSub) error {
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.receive(ctx, msg.Payload)
		}
	}
}

// forward publishes a locally originated event. Events replayed from other
// instances are not sent back out.
func (b *Bridge) forward(ctx context.Context, ev syncbus.Event) error {
	if ev.Origin != syncbus.OriginLocal {
		return nil
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		metrics.RecordBridgeMessage("out", "encode_error")
		return fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}
	data, err := json.Marshal(Message{
		ID:        ev.ID,
		Type:      ev.Type,
		Payload:   payload,
		Priority:  ev.Priority,
		Timestamp: ev.Timestamp,
		Origin:    b.instance,
	})
	if err != nil {
		metrics.RecordBridgeMessage("out", "encode_error")
		return fmt.Errorf("encode %s: %w", ev.ID, err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		metrics.RecordBridgeMessage("out", "publish_error")
		return fmt.Errorf("publish %s: %w", ev.ID, err)
	}
	metrics.RecordBridgeMessage("out", "ok")
	return nil
}

// receive dispatches one remote message. Own messages and repeats are
// dropped; a repeat is keyed by origin and event ID.
func (b *Bridge) receive(ctx context.Context, raw string) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		metrics.RecordBridgeMessage("in", "decode_error")
		b.logger.Warn(ctx, "dropping malformed bridge message", logger.Error(err))
		return
	}
	if msg.Origin == b.instance || msg.Origin == "" || msg.Origin == syncbus.OriginLocal {
		metrics.RecordBridgeMessage("in", "echo")
		return
	}

	key := msg.Origin + "/" + msg.ID
	if b.seen.SeenAndRecord(ctx, key) {
		metrics.RecordBridgeMessage("in", "duplicate")
		return
	}

	var payload any
	if len(msg.Payload) > 0 {
		payload = msg.Payload
	}
	_, err := b.bus.Dispatch(ctx, syncbus.Event{
		ID:        msg.ID,
		Type:      msg.Type,
		Payload:   payload,
		Priority:  msg.Priority,
		Timestamp: msg.Timestamp,
		Origin:    msg.Origin,
	})
	if err != nil {
		b.seen.Unrecord(ctx, key)
		metrics.RecordBridgeMessage("in", "dispatch_error")
		b.logger.Warn(ctx, "remote event not dispatched",
			logger.String("event_id", msg.ID),
			logger.String("origin", msg.Origin),
			logger.Error(err))
		return
	}
	metrics.RecordBridgeMessage("in", "ok")
}
