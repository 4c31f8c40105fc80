// Package simulate generates recruiting classes and drives a running
// service through concurrent signings, checking the ledger afterwards.
package simulate

import (
	"time"

	"github.com/okian/signingday/internal/domain/model"
)

// ClassConfig describes a generated session.
type ClassConfig struct {
	Teams    int // the first team is human-managed, the rest are AI
	Recruits int
	Coaches  int
	Pool     model.GrantPool
	Seed     uint64
}

// Config holds configuration for a signing run.
type Config struct {
	BaseURL string        // Base URL of the service
	TeamID  string        // team making the offers
	Offers  int           // number of prospects to pursue
	Share   float64       // scholarship share offered to each
	Workers int           // number of concurrent workers
	Timeout time.Duration // HTTP request timeout
}

// Stats holds run statistics.
type Stats struct {
	Offered      int
	Signed       int
	Insufficient int
	Conflicts    int
	Gone         int
	Failed       int
	Repairs      int
	UsedShare    float64
	TotalShare   float64
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
