// Package service wires configuration, channels and the transfer core into
// the operations the CLI exposes: one-shot transfers and the watch loop.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/channel/sshchan"
	"github.com/Ning0612/Devicesync/internal/config"
	"github.com/Ning0612/Devicesync/internal/core/capability"
	"github.com/Ning0612/Devicesync/internal/core/checksum"
	"github.com/Ning0612/Devicesync/internal/core/engine"
	"github.com/Ning0612/Devicesync/internal/core/probe"
	"github.com/Ning0612/Devicesync/internal/core/transfer"
	"github.com/Ning0612/Devicesync/internal/dialect"
	"github.com/Ning0612/Devicesync/internal/dialect/iosxe"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/lock"
	"github.com/Ning0612/Devicesync/internal/logger"
	"github.com/Ning0612/Devicesync/internal/progress"
	"github.com/Ning0612/Devicesync/internal/state"
)

// dialFunc opens both channels to a device; replaced by tests
type dialFunc func(device *config.Device, timeout time.Duration) (channel.AdminChannel, channel.BulkChannel, error)

// TransferService runs file transfers against configured devices. It owns
// the per-device lock and the optional journal; one service instance serves
// any number of sequential transfers.
type TransferService struct {
	cfg      *config.Config
	reporter progress.Reporter
	journal  *state.Manager
	lockDir  string
	dial     dialFunc
}

// NewTransferService creates a transfer service from configuration
func NewTransferService(cfg *config.Config) (*TransferService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	s := &TransferService{
		cfg:  cfg,
		dial: dialSSH,
	}

	if cfg.History.Enabled {
		journal, err := state.NewManager(config.ExpandPath(cfg.History.DataDir))
		if err != nil {
			return nil, fmt.Errorf("failed to open transfer journal: %w", err)
		}
		s.journal = journal
	}

	return s, nil
}

// dialSSH opens the administrative and bulk channels over SSH
func dialSSH(device *config.Device, timeout time.Duration) (channel.AdminChannel, channel.BulkChannel, error) {
	opts := sshchan.Options{
		Addr:           device.Addr(),
		Username:       device.Username,
		Password:       device.Password,
		EnableSecret:   device.EnableSecret,
		CommandTimeout: timeout,
	}

	admin, err := sshchan.Dial(opts)
	if err != nil {
		return nil, nil, err
	}
	return admin, sshchan.NewBulk(opts), nil
}

// SetProgressReporter sets the progress reporter for transfers
func (s *TransferService) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

// dialectFor resolves the command dialect for a device platform
func dialectFor(platform string) (dialect.Dialect, error) {
	switch platform {
	case "", "iosxe":
		return iosxe.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported platform: %s", domain.ErrConfigInvalid, platform)
	}
}

// Run executes one transfer against the named device. The device lock is
// held for the whole run; the outcome is journaled when history is enabled.
func (s *TransferService) Run(ctx context.Context, deviceName string, direction domain.Direction,
	src, dst string, opts domain.TransferOptions) (domain.TransferOutcome, error) {

	var outcome domain.TransferOutcome

	device, err := s.cfg.GetDevice(deviceName)
	if err != nil {
		return outcome, err
	}

	d, err := dialectFor(device.Platform)
	if err != nil {
		return outcome, err
	}

	deviceLock, err := lock.NewDeviceLock(s.lockDir, device.Name)
	if err != nil {
		return outcome, err
	}
	if err := deviceLock.Acquire(fmt.Sprintf("%s %s", direction, src)); err != nil {
		return outcome, fmt.Errorf("%w: %v", domain.ErrTransferInProgress, err)
	}
	defer func() {
		if err := deviceLock.Release(); err != nil {
			logger.Get().Error("failed to release device lock", "device", device.Name, "error", err)
		}
	}()

	admin, bulk, err := s.dial(device, s.cfg.Transfer.CommandTimeout)
	if err != nil {
		return outcome, fmt.Errorf("connecting to %s: %w", device.Name, err)
	}
	defer admin.Close()

	orch := transfer.New(
		probe.NewLocalProber(checksum.MD5),
		probe.NewRemoteProber(admin, d, s.cfg.Transfer.HashTimeout),
		capability.NewDeviceNegotiator(admin, d),
		engine.NewCopyEngine(bulk, admin, d.KeepalivePattern()),
		probe.NewRootResolver(admin, d),
	)
	if s.reporter != nil {
		orch.SetProgressReporter(s.reporter)
	} else {
		orch.SetProgressReporter(progress.NullReporter{})
	}

	if opts.DeviceFS == "" {
		opts.DeviceFS = device.FileSystem
	}

	record := state.NewRecord(device.Name, direction, src, dst)
	outcome, err = orch.Transfer(ctx, direction, src, dst, opts)

	if s.journal != nil {
		record.SetOutcome(outcome, err)
		if jerr := s.journal.SaveTransfer(record); jerr != nil {
			// Journaling is best-effort; never fail the transfer over it
			logger.Get().Warn("failed to journal transfer", "device", device.Name, "error", jerr)
		}
	}

	return outcome, err
}

// History returns the journaled transfers for a device, newest first
func (s *TransferService) History(device string, limit int) ([]state.TransferRecord, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("transfer history is not enabled")
	}
	if device == "" {
		return s.journal.GetAllHistory(limit)
	}
	return s.journal.GetHistory(device, limit)
}

// Close releases the journal
func (s *TransferService) Close() error {
	if s.journal != nil {
		return s.journal.Close()
	}
	return nil
}
