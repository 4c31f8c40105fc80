// Package service composes the ledger store, negotiation engine, sync bus and
// their adapters into the running recruitment service.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/okian/signingday/internal/adapters/http/api"
	eventqueue "github.com/okian/signingday/internal/adapters/mq/queue"
	workerpool "github.com/okian/signingday/internal/adapters/mq/worker"
	"github.com/okian/signingday/internal/adapters/redisbridge"
	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/adapters/savestate"
	"github.com/okian/signingday/internal/config"
	"github.com/okian/signingday/internal/domain/dedupe"
	"github.com/okian/signingday/internal/domain/ids"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/internal/domain/negotiation"
	"github.com/okian/signingday/internal/domain/syncbus"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

// Service owns every component of one running process.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	thresholds model.LevelThresholds
	instance   string

	// Core components
	store  *repository.MemoryStore
	bus    *syncbus.Bus
	engine *negotiation.Engine
	codec  *savestate.Codec

	// AI opponents
	decider workerpool.Decider
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	aiSub   syncbus.SubscriptionID

	// Redis
	rdb     redis.UniversalClient
	ownsRDB bool
	bridge  *redisbridge.Bridge
	slots   *savestate.RedisSlots

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration; defaults are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRedisClient uses an existing client instead of dialing redis_addr.
// The caller keeps ownership of it.
func WithRedisClient(rdb redis.UniversalClient) Option {
	return func(s *Service) {
		s.rdb = rdb
	}
}

// WithDecider replaces the seeded random decider of AI opponents.
func WithDecider(d workerpool.Decider) Option {
	return func(s *Service) {
		if d != nil {
			s.decider = d
		}
	}
}

// WithInstanceName names this process on the Redis channel. A random name
// is generated otherwise.
func WithInstanceName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.instance = name
		}
	}
}

// New builds the in-process components. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger, "service")
	if s.instance == "" {
		s.instance = ids.NewUUID("node").NewID()
	}

	cfg := s.cfg
	s.thresholds = model.LevelThresholds{
		FullPct:    cfg.LevelFullPct,
		HalfPct:    cfg.LevelHalfPct,
		QuarterPct: cfg.LevelQuarterPct,
	}
	s.store = repository.NewMemoryStore(
		repository.WithDefaultPool(model.GrantPool{
			TotalGrantUnits: cfg.TotalGrantUnits,
			RosterSizeMin:   cfg.RosterSizeMin,
			RosterSizeMax:   cfg.RosterSizeMax,
		}),
		repository.WithLogger(s.logger.Named("store")),
	)
	s.bus = syncbus.New(s.store, syncbus.WithLogger(s.logger.Named("syncbus")))
	s.engine = negotiation.New(s.store,
		negotiation.WithPublisher(s.bus),
		negotiation.WithMarketRate(cfg.CoachMarketRate),
		negotiation.WithMaxRounds(cfg.MaxRounds),
		negotiation.WithCounterThreshold(cfg.CounterThreshold),
		negotiation.WithLevelThresholds(s.thresholds),
		negotiation.WithLogger(s.logger.Named("negotiation")),
	)
	s.codec = savestate.NewCodec(
		savestate.WithThresholds(s.thresholds),
		savestate.WithLogger(s.logger.Named("savestate")),
	)
	if s.decider == nil {
		s.decider = workerpool.NewRandomDecider(uint64(cfg.DecisionSeed))
	}
	return s
}

// Start launches the AI worker pool, the Redis bridge and the periodic
// consistency check, as configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting signingday service...", logger.String("instance", s.instance))

	if cfg.AutoDecide {
		s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(cfg.DecisionQueueSize))
		s.pool = workerpool.NewPool(cfg.DecisionWorkers, s.queue, s.decider, s.engine,
			workerpool.WithLogger(s.logger.Named("worker")))
		sub, err := s.bus.Subscribe(syncbus.EventAny, s.decisionHandler(s.queue), 0)
		if err != nil {
			return fmt.Errorf("subscribe decisions: %w", err)
		}
		s.aiSub = sub
		s.pool.Start(ctx)
	}

	if err := s.startRedis(ctx); err != nil {
		s.stopLocked(ctx)
		return err
	}

	if iv := cfg.SyncInterval(); iv > 0 {
		if err := s.bus.StartPeriodicSyncCheck(ctx, iv); err != nil {
			s.stopLocked(ctx)
			return fmt.Errorf("start sync check: %w", err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "signingday service started",
		logger.Bool("auto_decide", cfg.AutoDecide),
		logger.Int("workers", s.workerCount()),
		logger.Bool("redis", s.rdb != nil),
		logger.Duration("sync_interval", cfg.SyncInterval()),
	)
	return nil
}

func (s *Service) startRedis(ctx context.Context) error {
	if s.rdb == nil && s.cfg.RedisAddr != "" {
		s.rdb = redis.NewClient(&redis.Options{Addr: s.cfg.RedisAddr})
		s.ownsRDB = true
	}
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	b, err := redisbridge.New(s.rdb, s.bus, s.cfg.RedisInstance, s.instance,
		redisbridge.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))),
		redisbridge.WithLogger(s.logger.Named("redisbridge")),
	)
	if err != nil {
		return fmt.Errorf("redis bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("redis bridge: %w", err)
	}
	s.bridge = b
	s.slots = savestate.NewRedisSlots(s.rdb, s.cfg.RedisInstance, s.codec)
	s.logger.Info(ctx, "redis bridge started", logger.String("channel", b.Channel()))
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping signingday service...")
	s.stopLocked(ctx)
	s.started = false
	s.logger.Info(ctx, "signingday service stopped")
}

func (s *Service) stopLocked(ctx context.Context) {
	s.bus.StopPeriodicSyncCheck()

	if s.bridge != nil {
		if err := s.bridge.Close(); err != nil {
			s.logger.Warn(ctx, "redis bridge close failed", logger.Error(err))
		}
		s.bridge = nil
	}
	s.slots = nil
	if s.ownsRDB && s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Warn(ctx, "redis close failed", logger.Error(err))
		}
		s.rdb = nil
		s.ownsRDB = false
	}

	if s.aiSub != 0 {
		s.bus.Unsubscribe(s.aiSub)
		s.aiSub = 0
	}
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown failed", logger.Error(err))
		}
		s.pool = nil
	}
}

// Handler returns the HTTP API bound to this service.
func (s *Service) Handler() http.Handler {
	return api.NewServer(api.Dependencies{
		Engine:     s.engine,
		Rosters:    s.store,
		Sync:       s.bus,
		Stats:      s,
		Thresholds: s.thresholds,
	}, api.WithLogger(s.logger.Named("api"))).Handler()
}

// Store returns the authoritative roster store.
func (s *Service) Store() *repository.MemoryStore { return s.store }

// Engine returns the negotiation engine.
func (s *Service) Engine() *negotiation.Engine { return s.engine }

// Bus returns the sync bus.
func (s *Service) Bus() *syncbus.Bus { return s.bus }

// Instance returns this process's name on the Redis channel.
func (s *Service) Instance() string { return s.instance }

func (s *Service) workerCount() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	teams := s.store.TeamIDs(ctx)
	var open int
	for _, n := range s.engine.Snapshot(ctx) {
		if n.Status.Open() {
			open++
		}
	}
	stats := map[string]any{
		"started":             s.started,
		"instance":            s.instance,
		"teams":               len(teams),
		"activeNegotiations":  open,
		"workerCount":         s.workerCount(),
		"busSubscribers":      s.bus.SubscriberCount(),
		"redis":               s.rdb != nil,
		"periodicSyncEnabled": s.bus.PeriodicInterval() > 0,
	}
	if s.queue != nil {
		n := s.queue.Len(ctx)
		stats["queueLength"] = n
		metrics.UpdateQueueSize(n)
	}
	metrics.UpdateActiveNegotiations(open)
	metrics.UpdateBusSubscribers(s.bus.SubscriberCount())
	return stats
}
