package savestate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/okian/signingday/pkg/logger"
)

// SlotKey returns the Redis key of a save slot.
func SlotKey(instance, slot string) string {
	return fmt.Sprintf("signingday:%s:save:%s", instance, slot)
}

// RedisSlots stores save-states as JSON blobs in named Redis slots.
type RedisSlots struct {
	rdb      redis.UniversalClient
	instance string
	codec    *Codec
	logger   logger.Logger
}

// NewRedisSlots builds a slot store namespaced by instance.
func NewRedisSlots(rdb redis.UniversalClient, instance string, codec *Codec) *RedisSlots {
	if codec == nil {
		codec = NewCodec()
	}
	return &RedisSlots{
		rdb:      rdb,
		instance: instance,
		codec:    codec,
		logger:   logger.OrDefault(nil, "savestate"),
	}
}

// Save writes st to slot, replacing what was there.
func (s *RedisSlots) Save(ctx context.Context, slot string, st SaveState) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	data, err := s.codec.Marshal(st, FormatJSON)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, SlotKey(s.instance, slot), data, 0).Err(); err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	s.logger.Info(ctx, "session saved", logger.String("slot", slot), logger.Int("bytes", len(data)))
	return nil
}

// Load reads slot or returns ErrSlotNotFound.
func (s *RedisSlots) Load(ctx context.Context, slot string) (SaveState, error) {
	if err := validSlot(slot); err != nil {
		return SaveState{}, err
	}
	data, err := s.rdb.Get(ctx, SlotKey(s.instance, slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return SaveState{}, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	if err != nil {
		return SaveState{}, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return s.codec.Unmarshal(ctx, data, FormatJSON)
}

// List returns the names of every saved slot in order.
func (s *RedisSlots) List(ctx context.Context) ([]string, error) {
	prefix := SlotKey(s.instance, "")
	var slots []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		slots = append(slots, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list save slots: %w", err)
	}
	sort.Strings(slots)
	return slots, nil
}

// Delete removes slot. Deleting an empty slot returns ErrSlotNotFound.
func (s *RedisSlots) Delete(ctx context.Context, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	n, err := s.rdb.Del(ctx, SlotKey(s.instance, slot)).Result()
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	return nil
}

func validSlot(slot string) error {
	if slot == "" || strings.ContainsAny(slot, ":*?[] \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}
