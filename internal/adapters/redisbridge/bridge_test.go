package redisbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/internal/domain/syncbus"
)

type recorder struct {
	mu     sync.Mutex
	events []syncbus.Event
}

func (r *recorder) handle(_ context.Context, ev syncbus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) remote() []syncbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []syncbus.Event
	for _, ev := range r.events {
		if ev.Origin != syncbus.OriginLocal {
			out = append(out, ev)
		}
	}
	return out
}

type node struct {
	bus    *syncbus.Bus
	bridge *Bridge
	seen   *recorder
}

func newNode(t *testing.T, ctx context.Context, addr, name string) *node {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	bus := syncbus.New(repository.NewMemoryStore(), syncbus.WithIDGenerator(ids.NewSequence("evt")))
	rec := &recorder{}
	_, err := bus.Subscribe(syncbus.EventAny, rec.handle, 0)
	require.NoError(t, err)

	b, err := New(rdb, bus, "test", name)
	require.NoError(t, err)
	require.NoError(t, b.Start(ctx))
	t.Cleanup(func() { _ = b.Close() })
	return &node{bus: bus, bridge: b, seen: rec}
}

func TestBridgeFanOut(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	east := newNode(t, ctx, mr.Addr(), "east")
	west := newNode(t, ctx, mr.Addr(), "west")
	assert.Equal(t, "signingday:test:sync_events", east.bridge.Channel())

	t.Run("local events reach the other instance", func(t *testing.T) {
		_, err := east.bus.Publish(ctx, syncbus.EventPlayerSigned, map[string]any{"team_id": "t1", "share": 0.5})
		require.NoError(t, err)

		require.Eventually(t, func() bool { return len(west.seen.remote()) == 1 }, 2*time.Second, 10*time.Millisecond)
		got := west.seen.remote()[0]
		assert.Equal(t, syncbus.EventPlayerSigned, got.Type)
		assert.Equal(t, "east", got.Origin)
		assert.Equal(t, int32(100), got.Priority)

		raw, ok := got.Payload.(json.RawMessage)
		require.True(t, ok)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "t1", payload["team_id"])
	})

	t.Run("instances do not replay their own events", func(t *testing.T) {
		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, east.seen.remote())
	})

	t.Run("replayed events are not forwarded again", func(t *testing.T) {
		_, err := west.bus.Publish(ctx, syncbus.EventLedgerRepaired, nil)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return len(east.seen.remote()) == 1 }, 2*time.Second, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		assert.Len(t, west.seen.remote(), 1)
		assert.Len(t, east.seen.remote(), 1)
	})
}

func TestBridgeDropsRepeatsAndGarbage(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	west := newNode(t, ctx, mr.Addr(), "west")

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	msg, err := json.Marshal(Message{ID: "evt-7", Type: syncbus.EventCoachSigned, Origin: "north", Timestamp: time.Unix(0, 0).UTC()})
	require.NoError(t, err)
	bad, err := json.Marshal(Message{ID: "evt-8", Type: "nonsense", Origin: "north"})
	require.NoError(t, err)

	for _, payload := range []any{msg, msg, "{not json", bad} {
		require.NoError(t, rdb.Publish(ctx, ChannelName("test"), payload).Err())
	}
	// Same ID from a different origin is a different event.
	other, err := json.Marshal(Message{ID: "evt-7", Type: syncbus.EventCoachSigned, Origin: "south"})
	require.NoError(t, err)
	require.NoError(t, rdb.Publish(ctx, ChannelName("test"), other).Err())

	require.Eventually(t, func() bool { return len(west.seen.remote()) == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	got := west.seen.remote()
	require.Len(t, got, 2)
	assert.Equal(t, "north", got[0].Origin)
	assert.Nil(t, got[0].Payload)
	assert.Equal(t, "south", got[1].Origin)
}

func TestBridgeLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	bus := syncbus.New(repository.NewMemoryStore())

	_, err := New(rdb, bus, "test", "")
	assert.ErrorIs(t, err, ErrNoInstance)

	b, err := New(rdb, bus, "test", "east")
	require.NoError(t, err)
	require.NoError(t, b.Start(ctx))
	assert.ErrorIs(t, b.Start(ctx), ErrStarted)
	assert.Equal(t, 1, bus.SubscriberCount())

	require.NoError(t, b.Close())
	assert.Equal(t, 0, bus.SubscriberCount())
	require.NoError(t, b.Close())

	t.Run("listen returns when the context ends", func(t *testing.T) {
		lctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- b.Listen(lctx) }()
		cancel()
		select {
		case err := <-done:
			assert.Error(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("listen did not return")
		}
	})
}
