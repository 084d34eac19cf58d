package probe

import (
	"context"
	"time"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/dialect"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
)

// DefaultHashTimeout is how long the device may take to hash one file.
// Hashing a large image on-device is slow and must not be mistaken for a
// hung session.
const DefaultHashTimeout = 5 * time.Minute

// RemoteProber implements Prober against the device filesystem, reached
// only through the administrative channel
type RemoteProber struct {
	admin       channel.AdminChannel
	dialect     dialect.Dialect
	hashTimeout time.Duration
}

// NewRemoteProber creates a device-side prober.
// hashTimeout <= 0 selects DefaultHashTimeout.
func NewRemoteProber(admin channel.AdminChannel, d dialect.Dialect, hashTimeout time.Duration) *RemoteProber {
	if hashTimeout <= 0 {
		hashTimeout = DefaultHashTimeout
	}
	return &RemoteProber{
		admin:       admin,
		dialect:     d,
		hashTimeout: hashTimeout,
	}
}

// Probe issues the dialect's integrity-check and listing commands and parses
// their output. An unrecognizable hash token means "not found", not a hard
// error; a missing free-space marker reports 0. Only channel failures
// surface as errors.
func (p *RemoteProber) Probe(ctx context.Context, name, storage string) (domain.FileState, error) {
	path := p.dialect.JoinPath(storage, name)

	hashOut, err := p.admin.SendCommand(ctx, p.dialect.HashCommand(path), p.hashTimeout)
	if err != nil {
		return domain.FileState{}, err
	}

	listOut, err := p.admin.SendCommand(ctx, p.dialect.ListCommand(path), 0)
	if err != nil {
		return domain.FileState{}, err
	}

	state := domain.FileState{
		Fingerprint: p.dialect.ParseHash(hashOut),
		Free:        p.dialect.ParseFreeSpace(listOut),
	}
	if state.Fingerprint != "" {
		state.Size = p.dialect.ParseFileSize(listOut, name)
	}

	logger.Get().Debug("device file probed",
		"path", path,
		"exists", state.Exists(),
		"size", state.Size,
		"free", state.Free,
	)

	return state, nil
}

var _ Prober = (*RemoteProber)(nil)
