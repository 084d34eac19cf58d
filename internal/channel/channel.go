// Package channel defines the contracts between the transfer core and the
// two device sessions it drives: the administrative command channel and the
// bulk-copy data channel. The two are always separate connections — the
// control channel's liveness is not implied by data-channel activity.
package channel

import (
	"context"
	"time"

	"github.com/Ning0612/Devicesync/internal/domain"
)

// AdminChannel is the command/response session used for inspection and
// configuration of the device. Implementations own prompt handling, command
// echo stripping and session state; callers only see response text.
type AdminChannel interface {
	// SendCommand sends one command and returns its response text.
	// A zero timeout uses the channel's default command timeout.
	SendCommand(ctx context.Context, command string, timeout time.Duration) (string, error)

	// SendCommands sends commands in order and returns one response per
	// command. Stops at the first transport failure.
	SendCommands(ctx context.Context, commands []string, timeout time.Duration) ([]string, error)

	// SendConfig applies configuration directives in order.
	// Returns domain.ErrConfigWriteFailed (wrapped) if the device rejects
	// any directive; directives before the failing one may have taken effect.
	SendConfig(ctx context.Context, directives []domain.Directive) error

	// RaisePrivilege acquires the named privilege level on the session.
	// No-op if the session already holds it.
	RaisePrivilege(ctx context.Context, level string) error

	// RawWrite writes bytes to the session without waiting for any
	// response. Used solely for the keep-alive no-op signal during long
	// bulk copies.
	RawWrite(p []byte) error

	// Close tears down the session
	Close() error
}

// CopyOptions parameterizes one bulk-copy operation
type CopyOptions struct {
	// BlockSize is the streaming block size in bytes
	BlockSize int

	// OnProgress is called after each block with cumulative copied bytes
	// and the total, if known. Must not block.
	OnProgress func(copied, total int64)
}

// BulkSession is one open bulk-copy connection
type BulkSession interface {
	// SendFile streams a local file to the device path
	SendFile(ctx context.Context, localPath, remotePath string, opts CopyOptions) error

	// FetchFile streams a device file to the local path
	FetchFile(ctx context.Context, remotePath, localPath string, opts CopyOptions) error

	// Close tears down the session
	Close() error
}

// BulkChannel opens bulk-copy sessions. Each Open dials a second,
// independent connection with the same credentials and host as the
// administrative session.
type BulkChannel interface {
	Open(ctx context.Context) (BulkSession, error)
}

// StorageRootResolver reports the device's active filesystem root
// (e.g. "flash:/"). Queried once per transfer when the caller supplied no
// explicit root. An empty string with nil error means "not detected".
type StorageRootResolver interface {
	ResolveRoot(ctx context.Context) (string, error)
}
