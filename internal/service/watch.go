package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Ning0612/Devicesync/internal/config"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
	"github.com/Ning0612/Devicesync/internal/scheduler"
	"github.com/Ning0612/Devicesync/internal/state"
)

// WatchService periodically re-runs one transfer so drifted devices converge
// back to the desired file. The transfer is idempotent, so a run against an
// already-synced device costs two probes and nothing else.
type WatchService struct {
	mu        sync.RWMutex
	cfg       *config.Config
	transfers *TransferService
	scheduler scheduler.Scheduler

	// The watched transfer
	direction domain.Direction
	src       string
	dst       string
	opts      domain.TransferOptions
}

// WatchStatus represents the current watcher status
type WatchStatus struct {
	Running        bool
	SchedulerStats *scheduler.Status
	LastTransfer   *state.TransferRecord
}

// NewWatchService creates a watcher over one transfer definition
func NewWatchService(cfg *config.Config, transfers *TransferService,
	direction domain.Direction, src, dst string, opts domain.TransferOptions) (*WatchService, error) {

	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if transfers == nil {
		return nil, fmt.Errorf("transfer service cannot be nil")
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDirection, direction)
	}

	return &WatchService{
		cfg:       cfg,
		transfers: transfers,
		direction: direction,
		src:       src,
		dst:       dst,
		opts:      opts,
	}, nil
}

// Start begins the watch loop
func (w *WatchService) Start(ctx context.Context, devices []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		return fmt.Errorf("watcher is already running")
	}

	schedConfig := scheduler.Config{
		Interval: w.cfg.Watch.Interval,
		Devices:  devices, // Empty = all configured devices
	}

	sched, err := scheduler.NewIntervalScheduler(schedConfig, w)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	w.scheduler = sched
	logger.Get().Info("watch loop started",
		"interval", w.cfg.Watch.Interval,
		"direction", string(w.direction),
		"src", w.src,
	)
	return nil
}

// RunTransfer implements scheduler.TransferRunner. An empty device name
// fans out to every configured device; failures are aggregated so one bad
// device never starves the rest.
func (w *WatchService) RunTransfer(ctx context.Context, device string) error {
	devices := []string{device}
	if device == "" {
		devices = devices[:0]
		for _, d := range w.cfg.Devices {
			devices = append(devices, d.Name)
		}
	}

	var errs []error
	for _, name := range devices {
		outcome, err := w.transfers.Run(ctx, name, w.direction, w.src, w.dst, w.opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", name, err))
			continue
		}
		if w.opts.VerifyHash && !outcome.Verified {
			errs = append(errs, fmt.Errorf("device %s: transfer not verified", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("watch run finished with %d error(s): %v", len(errs), errs)
	}
	return nil
}

// Stop stops the watch loop
func (w *WatchService) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler == nil {
		return fmt.Errorf("watcher is not running")
	}

	if err := w.scheduler.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	w.scheduler = nil
	return nil
}

// Status returns the current watcher status
func (w *WatchService) Status() *WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := &WatchStatus{
		Running: w.scheduler != nil,
	}

	if w.scheduler != nil {
		status.SchedulerStats = w.scheduler.Status()
	}

	if history, err := w.transfers.History("", 1); err == nil && len(history) > 0 {
		status.LastTransfer = &history[0]
	}

	return status
}

// Close stops the loop if running
func (w *WatchService) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.scheduler != nil {
		if err := w.scheduler.Stop(); err != nil {
			return err
		}
		w.scheduler = nil
	}
	return nil
}

var _ scheduler.TransferRunner = (*WatchService)(nil)
