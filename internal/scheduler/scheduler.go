// Package scheduler drives watch mode: periodic re-runs of an idempotent
// transfer. A re-run whose fingerprints already match is a cheap no-op, so
// the loop converges devices back to the desired file without extra state.
package scheduler

import (
	"context"
	"time"
)

// Scheduler defines the interface for transfer schedulers
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler
	Stop() error

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running        bool
	LastRunTime    time.Time
	NextRunTime    time.Time
	TotalRuns      int
	SuccessfulRuns int
	FailedRuns     int
	LastError      string
}

// Config contains scheduler configuration
type Config struct {
	// Interval specifies the duration between transfer runs
	Interval time.Duration

	// Devices specifies which devices to sync (empty = all configured)
	Devices []string
}

// TransferRunner is the interface schedulers use to execute transfers
type TransferRunner interface {
	// RunTransfer executes one transfer against the named device
	RunTransfer(ctx context.Context, device string) error
}
