// Package engine drives the bulk-copy channel for a single get/put
// operation. While blocks stream on the data channel, a keep-alive signal is
// written on the administrative channel so its idle timeout does not fire —
// the two channels are independent connections, and control-channel liveness
// is not implied by data-channel activity.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
	"github.com/Ning0612/Devicesync/internal/progress"
)

// Engine copies one file over the bulk channel
type Engine interface {
	// Copy moves src to dst in the given direction. Any transport-level
	// failure is fatal to the call; the engine never retries internally.
	Copy(ctx context.Context, direction domain.Direction, src, dst string,
		reporter progress.Reporter, keepaliveInterval time.Duration, blockSize int) error
}

// CopyEngine implements Engine over a BulkChannel, with keep-alives written
// through the administrative channel
type CopyEngine struct {
	bulk      channel.BulkChannel
	admin     channel.AdminChannel
	keepalive []byte
}

// NewCopyEngine creates an engine. keepalivePattern is the harmless no-op
// byte sequence for the administrative channel (dialect-specific).
func NewCopyEngine(bulk channel.BulkChannel, admin channel.AdminChannel, keepalivePattern []byte) *CopyEngine {
	return &CopyEngine{
		bulk:      bulk,
		admin:     admin,
		keepalive: keepalivePattern,
	}
}

// Copy implements Engine
func (e *CopyEngine) Copy(ctx context.Context, direction domain.Direction, src, dst string,
	reporter progress.Reporter, keepaliveInterval time.Duration, blockSize int) error {

	if reporter == nil {
		reporter = progress.NullReporter{}
	}
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}

	session, err := e.bulk.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening bulk-copy session: %w", err)
	}
	defer session.Close()

	ka := newKeepaliver(keepaliveInterval, e.keepalive, e.admin)
	defer ka.stop()

	started := false
	opts := channel.CopyOptions{
		BlockSize: blockSize,
		OnProgress: func(copied, total int64) {
			if !started {
				started = true
				reporter.Start(dst, total)
			}
			reporter.Update(copied)
			ka.maybeSignal()
		},
	}

	switch direction {
	case domain.DirectionPut:
		err = session.SendFile(ctx, src, dst, opts)
	case domain.DirectionGet:
		err = session.FetchFile(ctx, src, dst, opts)
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidDirection, direction)
	}

	if err != nil {
		reporter.Error(err)
		return fmt.Errorf("bulk copy failed: %w", err)
	}

	reporter.Complete()
	return nil
}

var _ Engine = (*CopyEngine)(nil)

// keepaliver writes the no-op pattern on the administrative channel at most
// once per interval. Two paths feed it: the copy loop's progress callbacks
// and an independent ticker (so a long block write cannot starve keep-alive
// delivery past the control channel's idle window). The shared last-signal
// timestamp sits behind a mutex; the write itself is fired in a goroutine so
// a slow or stuck keep-alive never stalls the data transfer.
type keepaliver struct {
	interval time.Duration
	pattern  []byte
	admin    channel.AdminChannel

	mu   sync.Mutex
	last time.Time
	done chan struct{}
}

func newKeepaliver(interval time.Duration, pattern []byte, admin channel.AdminChannel) *keepaliver {
	k := &keepaliver{
		interval: interval,
		pattern:  pattern,
		admin:    admin,
		last:     time.Now(),
		done:     make(chan struct{}),
	}

	if k.enabled() {
		go k.run()
	}

	return k
}

func (k *keepaliver) enabled() bool {
	return k.interval > 0 && k.admin != nil && len(k.pattern) > 0
}

func (k *keepaliver) run() {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.done:
			return
		case <-ticker.C:
			k.maybeSignal()
		}
	}
}

// maybeSignal writes the keep-alive if the interval elapsed since the last
// signal. Fire-and-forget: never blocks the caller.
func (k *keepaliver) maybeSignal() {
	if !k.enabled() {
		return
	}

	k.mu.Lock()
	if time.Since(k.last) < k.interval {
		k.mu.Unlock()
		return
	}
	k.last = time.Now()
	k.mu.Unlock()

	go func() {
		logger.Get().Debug("sending keepalive on administrative channel")
		if err := k.admin.RawWrite(k.pattern); err != nil {
			logger.Get().Warn("keepalive write failed", "error", err)
		}
	}()
}

func (k *keepaliver) stop() {
	if k.enabled() {
		close(k.done)
	}
}
