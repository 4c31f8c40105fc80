package savestate

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSlots(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store, eng := session(t, ctx)
	codec := NewCodec()
	st := Capture(ctx, store, eng, pool, codec.Thresholds())
	slots := NewRedisSlots(rdb, "test", codec)

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, slots.Save(ctx, "week-1", st))
		assert.True(t, mr.Exists("signingday:test:save:week-1"))

		got, err := slots.Load(ctx, "week-1")
		require.NoError(t, err)
		want, err := codec.Marshal(st, FormatJSON)
		require.NoError(t, err)
		again, err := codec.Marshal(got, FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(again))
	})

	t.Run("list is sorted and namespaced", func(t *testing.T) {
		require.NoError(t, slots.Save(ctx, "autosave", st))
		require.NoError(t, mr.Set("signingday:other:save:x", "{}"))

		names, err := slots.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"autosave", "week-1"}, names)
	})

	t.Run("missing and invalid slots", func(t *testing.T) {
		_, err := slots.Load(ctx, "nope")
		assert.ErrorIs(t, err, ErrSlotNotFound)
		assert.ErrorIs(t, slots.Delete(ctx, "nope"), ErrSlotNotFound)
		assert.ErrorIs(t, slots.Save(ctx, "a:b", st), ErrInvalidSlot)
		_, err = slots.Load(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidSlot)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, slots.Delete(ctx, "autosave"))
		names, err := slots.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"week-1"}, names)
	})
}
