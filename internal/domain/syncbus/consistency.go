package syncbus

import (
	"context"
	"time"

	"github.com/okian/signingday/internal/adapters/repository"
	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/pkg/logger"
	"github.com/okian/signingday/pkg/metrics"
)

// Repair records one team's counters before and after a consistency pass.
type Repair struct {
	TeamID string         `json:"team_id"`
	Before model.Counters `json:"before"`
	After  model.Counters `json:"after"`
}

// Report is the outcome of a consistency pass.
type Report struct {
	TeamsChecked int      `json:"teams_checked"`
	Repairs      []Repair `json:"repairs"`
	Errors       int      `json:"errors"`
}

// PerformConsistencyCheck re-derives every team's cached counters from its
// roster and overwrites those that drifted. Shares are summed fractionally;
// entries without a share count as one unit. The roster itself is never
// modified. Safe to call at any time and idempotent.
func (b *Bus) PerformConsistencyCheck(ctx context.Context) Report {
	start := time.Now()
	defer func() {
		metrics.RecordConsistencyCheck(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var report Report
	for _, teamID := range b.store.TeamIDs(ctx) {
		var repair *Repair
		err := b.store.WithTeam(ctx, teamID, func(tx repository.Tx) error {
			roster := tx.Roster()
			want := model.Counters{
				ScholarshipsUsed: ledger.New(tx.Team().Pool, ledger.FromRoster(roster)).UsedShare(),
				RosterSize:       len(roster),
			}
			have := tx.Counters()
			if have == want {
				return nil
			}
			tx.SetCounters(want)
			repair = &Repair{TeamID: teamID, Before: have, After: want}
			return nil
		})
		if err != nil {
			report.Errors++
			b.logger.Error(ctx, "consistency check failed", logger.String("team_id", teamID), logger.Error(err))
			continue
		}
		report.TeamsChecked++
		if repair == nil {
			continue
		}

		report.Repairs = append(report.Repairs, *repair)
		if repair.Before.ScholarshipsUsed != repair.After.ScholarshipsUsed {
			metrics.RecordConsistencyRepair("scholarships_used")
		}
		if repair.Before.RosterSize != repair.After.RosterSize {
			metrics.RecordConsistencyRepair("roster_size")
		}
		b.logger.Warn(ctx, "repaired drifted counters",
			logger.String("team_id", teamID),
			logger.Float64("used_before", repair.Before.ScholarshipsUsed),
			logger.Float64("used_after", repair.After.ScholarshipsUsed),
			logger.Int("roster_before", repair.Before.RosterSize),
			logger.Int("roster_after", repair.After.RosterSize))

		// Published after the team lock is released so handlers may read the
		// store.
		if _, err := b.Publish(ctx, EventLedgerRepaired, *repair); err != nil {
			b.logger.Debug(ctx, "ledger repair not published", logger.Error(err))
		}
	}
	return report
}

// StartPeriodicSyncCheck runs PerformConsistencyCheck every interval until
// stopped or ctx ends. Starting again replaces the running schedule.
func (b *Bus) StartPeriodicSyncCheck(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	b.checkMu.Lock()
	defer b.checkMu.Unlock()
	b.stopLocked()

	stop := make(chan struct{})
	b.stopChan = stop
	b.interval = interval
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				b.inPass.Add(1)
				b.PerformConsistencyCheck(ctx)
				b.inPass.Add(-1)
			}
		}
	}()
	b.logger.Info(ctx, "periodic sync check started", logger.Duration("interval", interval))
	return nil
}

// StopPeriodicSyncCheck cancels the schedule. It is a no-op when nothing is
// running. Called while a scheduled pass is in flight, as from a
// ledgerRepaired handler, it returns without waiting for that pass.
func (b *Bus) StopPeriodicSyncCheck() {
	b.checkMu.Lock()
	defer b.checkMu.Unlock()
	b.stopLocked()
}

// PeriodicInterval returns the running schedule's interval, or zero.
func (b *Bus) PeriodicInterval() time.Duration {
	b.checkMu.Lock()
	defer b.checkMu.Unlock()
	return b.interval
}

func (b *Bus) stopLocked() {
	if b.stopChan == nil {
		return
	}
	close(b.stopChan)
	b.stopChan = nil
	b.interval = 0
	if b.inPass.Load() > 0 {
		// the loop exits on its own once the pass returns
		return
	}
	b.wg.Wait()
}
