// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers defaults, an optional YAML file and SIGNINGDAY_ env vars.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TotalGrantUnits is the default grant pool capacity per team, in
	// full-scholarship equivalents.
	TotalGrantUnits float64 `koanf:"total_grant_units"`

	// RosterSizeMin and RosterSizeMax bound the roster of every team.
	RosterSizeMin uint32 `koanf:"roster_size_min"`
	RosterSizeMax uint32 `koanf:"roster_size_max"`

	// Level thresholds, as percentages of one full grant unit, used only to
	// classify awards for display.
	LevelFullPct    float64 `koanf:"level_full_pct"`
	LevelHalfPct    float64 `koanf:"level_half_pct"`
	LevelQuarterPct float64 `koanf:"level_quarter_pct"`

	// CoachMarketRate is the reference salary in coach acceptance estimates.
	CoachMarketRate float64 `koanf:"coach_market_rate"`

	// MaxRounds is recorded on every new negotiation; the engine does not
	// enforce it.
	MaxRounds uint32 `koanf:"max_rounds"`

	// CounterThreshold puts a negotiation into CounterPending when an updated
	// offer's probability falls below it.
	CounterThreshold uint8 `koanf:"counter_threshold"`

	// SyncIntervalMS is the periodic consistency check cadence; 0 disables it.
	SyncIntervalMS int `koanf:"sync_interval_ms"`

	// Decision* configure the AI opponent worker pool.
	DecisionWorkers   int   `koanf:"decision_workers"`
	DecisionQueueSize int   `koanf:"decision_queue_size"`
	DecisionSeed      int64 `koanf:"decision_seed"`
	AutoDecide        bool  `koanf:"auto_decide"`

	// DedupeSize bounds the bridge's seen-event cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RedisAddr enables the Redis bridge when non-empty.
	RedisAddr     string `koanf:"redis_addr"`
	RedisInstance string `koanf:"redis_instance"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		TotalGrantUnits:   5.0,
		RosterSizeMin:     13,
		RosterSizeMax:     15,
		LevelFullPct:      100,
		LevelHalfPct:      50,
		LevelQuarterPct:   25,
		CoachMarketRate:   250_000,
		MaxRounds:         5,
		CounterThreshold:  40,
		SyncIntervalMS:    30_000,
		DecisionWorkers:   runtime.NumCPU(),
		DecisionQueueSize: 1_024,
		DecisionSeed:      42,
		AutoDecide:        true,
		DedupeSize:        10_000,
		RedisInstance:     "default",
	}
}

// SyncInterval returns SyncIntervalMS as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TotalGrantUnits <= 0:
		return fmt.Errorf("%w: total_grant_units must be positive", ErrInvalidConfig)
	case c.RosterSizeMax == 0 || c.RosterSizeMin > c.RosterSizeMax:
		return fmt.Errorf("%w: roster_size_min must not exceed roster_size_max", ErrInvalidConfig)
	case !(c.LevelFullPct > c.LevelHalfPct && c.LevelHalfPct > c.LevelQuarterPct && c.LevelQuarterPct > 0):
		return fmt.Errorf("%w: level thresholds must be strictly decreasing and positive", ErrInvalidConfig)
	case c.CoachMarketRate <= 0:
		return fmt.Errorf("%w: coach_market_rate must be positive", ErrInvalidConfig)
	case c.CounterThreshold > 100:
		return fmt.Errorf("%w: counter_threshold must be within 0..100", ErrInvalidConfig)
	case c.SyncIntervalMS < 0:
		return fmt.Errorf("%w: sync_interval_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
