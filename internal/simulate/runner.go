package simulate

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/okian/signingday/pkg/logger"
)

const (
	defaultWorkers = 4
	defaultTimeout = 10 * time.Second
	shareTolerance = 1e-9
)

type outcome int

const (
	outcomeSigned outcome = iota
	outcomeInsufficient
	outcomeConflict
	outcomeGone
	outcomeFailed
)

type prospect struct {
	RecruitID string `json:"recruit_id"`
}

type negotiationRef struct {
	ID string `json:"id"`
}

type ledgerSummary struct {
	Summary struct {
		Total         float64 `json:"total"`
		Used          float64 `json:"used"`
		OverCommitted bool    `json:"over_committed"`
	} `json:"summary"`
	Counters struct {
		ScholarshipsUsed float64 `json:"scholarships_used"`
		RosterSize       int     `json:"roster_size"`
	} `json:"counters"`
	Roster []struct{} `json:"roster"`
}

type syncReport struct {
	Repairs []struct {
		TeamID string `json:"team_id"`
	} `json:"repairs"`
}

// Run pursues the top prospects concurrently for one team, accepting every
// offer, then checks that the team's ledger stayed within its pool and that
// the cached counters agree with the roster.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if cfg.TeamID == "" || cfg.Offers < 1 || cfg.Share <= 0 {
		return nil, fmt.Errorf("%w: team, offers and share are required", ErrInvalidConfig)
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	log := logger.OrDefault(nil, "simulate")
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting signing run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("team_id", cfg.TeamID),
		logger.Int("offers", cfg.Offers),
		logger.Float64("share", cfg.Share),
		logger.Int("workers", cfg.Workers))

	// Step 1: Check service health
	if code, err := client.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil || code != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %v", ErrUnhealthy, code, err)
	}

	// Step 2: Pick targets from the prospect board
	var board struct {
		Prospects []prospect `json:"prospects"`
	}
	if _, err := client.do(ctx, http.MethodGet, "/prospects?limit="+strconv.Itoa(cfg.Offers), nil, &board); err != nil {
		return nil, err
	}
	if len(board.Prospects) == 0 {
		return nil, ErrNoProspects
	}

	// Step 3: Offer and accept concurrently
	counts := pursue(ctx, client, cfg, board.Prospects)
	stats.Offered = len(board.Prospects)
	stats.Signed = counts[outcomeSigned]
	stats.Insufficient = counts[outcomeInsufficient]
	stats.Conflicts = counts[outcomeConflict]
	stats.Gone = counts[outcomeGone]
	stats.Failed = counts[outcomeFailed]

	// Step 4: Verify
	err := verify(ctx, client, cfg.TeamID, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "final statistics",
		logger.Int("offered", stats.Offered),
		logger.Int("signed", stats.Signed),
		logger.Int("insufficient", stats.Insufficient),
		logger.Int("conflicts", stats.Conflicts),
		logger.Int("gone", stats.Gone),
		logger.Int("failed", stats.Failed),
		logger.Int("repairs", stats.Repairs),
		logger.Float64("used", stats.UsedShare),
		logger.Float64("total", stats.TotalShare),
		logger.Duration("duration", stats.Duration))
	return stats, err
}

func pursue(ctx context.Context, client *httpClient, cfg Config, targets []prospect) map[outcome]int {
	var (
		mu     sync.Mutex
		counts = make(map[outcome]int)
		wg     sync.WaitGroup
		work   = make(chan prospect, cfg.Workers*2)
	)
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				o := signOne(ctx, client, cfg, p.RecruitID)
				mu.Lock()
				counts[o]++
				mu.Unlock()
			}
		}()
	}
	go func() {
		defer close(work)
		for _, p := range targets {
			select {
			case <-ctx.Done():
				return
			case work <- p:
			}
		}
	}()
	wg.Wait()
	return counts
}

func signOne(ctx context.Context, client *httpClient, cfg Config, recruitID string) outcome {
	start := map[string]any{
		"team_id":   cfg.TeamID,
		"target_id": recruitID,
		"kind":      "player",
		"offer":     map[string]any{"scholarship_share": cfg.Share},
	}
	var ref negotiationRef
	code, err := client.do(ctx, http.MethodPost, "/negotiations", start, &ref)
	switch {
	case err != nil:
		return outcomeFailed
	case code == http.StatusConflict:
		return outcomeConflict
	case code == http.StatusNotFound:
		return outcomeGone
	case code != http.StatusCreated:
		return outcomeFailed
	}

	path := "/negotiations/" + ref.ID
	code, err = client.do(ctx, http.MethodPost, path+"/complete", map[string]any{"accept": true}, nil)
	switch {
	case err != nil:
		return outcomeFailed
	case code == http.StatusOK:
		return outcomeSigned
	case code == http.StatusUnprocessableEntity:
		// Capacity refusals leave the negotiation open.
		_, _ = client.do(ctx, http.MethodPost, path+"/withdraw", nil, nil)
		return outcomeInsufficient
	case code == http.StatusConflict:
		return outcomeConflict
	case code == http.StatusNotFound:
		return outcomeGone
	default:
		return outcomeFailed
	}
}

func verify(ctx context.Context, client *httpClient, teamID string, stats *Stats) error {
	var l ledgerSummary
	code, err := client.do(ctx, http.MethodGet, "/teams/"+teamID+"/ledger", nil, &l)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("ledger for %s: status %d", teamID, code)
	}
	stats.UsedShare = l.Summary.Used
	stats.TotalShare = l.Summary.Total
	if l.Summary.OverCommitted || l.Summary.Used > l.Summary.Total+shareTolerance {
		return fmt.Errorf("%w: %s used %.4g of %.4g", ErrOverCommitted, teamID, l.Summary.Used, l.Summary.Total)
	}
	if math.Abs(l.Counters.ScholarshipsUsed-l.Summary.Used) > shareTolerance || l.Counters.RosterSize != len(l.Roster) {
		return fmt.Errorf("%w: %s counters %.4g/%d, roster %.4g/%d", ErrDrift, teamID,
			l.Counters.ScholarshipsUsed, l.Counters.RosterSize, l.Summary.Used, len(l.Roster))
	}

	var report syncReport
	if _, err := client.do(ctx, http.MethodPost, "/sync/check", nil, &report); err != nil {
		return err
	}
	stats.Repairs = len(report.Repairs)
	if stats.Repairs > 0 {
		return fmt.Errorf("%w: consistency pass repaired %d teams", ErrDrift, stats.Repairs)
	}
	return nil
}
