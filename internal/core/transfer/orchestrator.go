// Package transfer composes probes, capability negotiation and the copy
// engine into one idempotent, verifiable file-transfer operation. The
// orchestrator owns all end-to-end pass/fail decisions; collaborators only
// report facts.
//
// Policy declines (missing source, overwrite refused, insufficient space,
// capability declined) return a well-formed TransferOutcome and a nil error.
// Errors are reserved for channel failures.
package transfer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/core/capability"
	"github.com/Ning0612/Devicesync/internal/core/engine"
	"github.com/Ning0612/Devicesync/internal/core/probe"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
	"github.com/Ning0612/Devicesync/internal/progress"
)

// Orchestrator runs one transfer: PreCheck -> CapabilityGate -> Copying ->
// Cleanup -> PostCheck, with early exits on decisive PreCheck and
// CapabilityGate outcomes
type Orchestrator struct {
	local      probe.Prober
	remote     probe.Prober
	negotiator capability.Negotiator
	engine     engine.Engine
	roots      channel.StorageRootResolver
	reporter   progress.Reporter
}

// New creates an orchestrator from its collaborators. roots may be nil when
// callers always supply an explicit device filesystem.
func New(local, remote probe.Prober, n capability.Negotiator, e engine.Engine,
	roots channel.StorageRootResolver) *Orchestrator {
	return &Orchestrator{
		local:      local,
		remote:     remote,
		negotiator: n,
		engine:     e,
		roots:      roots,
	}
}

// SetProgressReporter sets the progress reporter for the copy stage
func (o *Orchestrator) SetProgressReporter(reporter progress.Reporter) {
	o.reporter = reporter
}

// Transfer runs one idempotent file transfer.
//
// Re-running the same transfer is a cheap no-op when source and destination
// fingerprints already match. Callers should treat outcome.Verified as "did
// the operation succeed"; a non-nil error means a channel failed mid-run.
func (o *Orchestrator) Transfer(ctx context.Context, direction domain.Direction,
	src, dst string, opts domain.TransferOptions) (domain.TransferOutcome, error) {

	var outcome domain.TransferOutcome

	if !direction.IsValid() {
		return outcome, fmt.Errorf("%w: %s", domain.ErrInvalidDirection, direction)
	}

	// Destination name defaults to the source file name
	if dst == "" || dst == "." {
		dst = filepath.Base(src)
	}

	deviceFS := opts.DeviceFS
	if deviceFS == "" && o.roots != nil {
		root, err := o.roots.ResolveRoot(ctx)
		if err != nil {
			return outcome, fmt.Errorf("resolving device filesystem: %w", err)
		}
		deviceFS = root
	}

	// Bind probes symmetrically to the direction; everything below is
	// direction-agnostic
	srcProbe, dstProbe := o.local, o.remote
	srcFS, dstFS := "", deviceFS
	if direction == domain.DirectionGet {
		srcProbe, dstProbe = o.remote, o.local
		srcFS, dstFS = deviceFS, ""
	}

	log := logger.With("direction", string(direction), "src", src, "dst", dst)

	var srcState, dstState domain.FileState
	if opts.VerifyHash {
		var err error
		srcState, err = srcProbe.Probe(ctx, src, srcFS)
		if err != nil {
			return outcome, fmt.Errorf("probing source: %w", err)
		}
		if !srcState.Exists() {
			// Canonical "source not found": short-circuit before any
			// capability or space checks run
			log.Warn("source file does not exist")
			return outcome, nil
		}

		dstState, err = dstProbe.Probe(ctx, dst, dstFS)
		if err != nil {
			return outcome, fmt.Errorf("probing destination: %w", err)
		}
		if dstState.Exists() {
			outcome.Exists = true
		}
		if dstState.Matches(srcState) {
			// Idempotency short-circuit: content already matches
			outcome.Verified = true
			log.Info("destination already matches source, nothing to transfer")
			return outcome, nil
		}
	}

	// Overwrite gate. Only reachable with a known, differing destination
	// hash; disabling hash verification also disables this check because
	// destination staleness was never probed.
	if dstState.Exists() && !opts.Overwrite {
		log.Warn("destination exists and overwrite is disabled")
		return outcome, nil
	}

	// Space gate: never attempt a transfer known to exceed capacity
	if dstState.Free < srcState.Size {
		log.Warn("insufficient space at destination",
			"needed", srcState.Size,
			"free", dstState.Free,
		)
		return outcome, nil
	}

	decision, err := o.negotiator.Ensure(ctx, opts.ForcePolicy)
	if err != nil {
		return outcome, fmt.Errorf("capability negotiation: %w", err)
	}
	if !decision.Capable() {
		log.Warn("device is not capable of bulk copy", "decision", decision.String())
		return outcome, nil
	}

	// Copy, then always restore configuration before surfacing any copy
	// failure: a partially-applied capability change must not be left
	// behind even when the copy dies partway
	engineSrc, engineDst := o.enginePaths(direction, src, dst, deviceFS)
	copyErr := o.engine.Copy(ctx, direction, engineSrc, engineDst,
		o.reporter, opts.KeepaliveInterval, opts.BlockSize)

	if opts.Cleanup && o.negotiator.Changed() {
		if cleanupErr := o.negotiator.Cleanup(ctx); cleanupErr != nil {
			log.Error("configuration rollback failed", "error", cleanupErr)
		}
	}

	if copyErr != nil {
		return outcome, copyErr
	}
	outcome.Transferred = true

	if opts.VerifyHash {
		dstState, err = dstProbe.Probe(ctx, dst, dstFS)
		if err != nil {
			return outcome, fmt.Errorf("re-probing destination: %w", err)
		}
		if dstState.Exists() {
			outcome.Exists = true
		}
		if dstState.Matches(srcState) {
			outcome.Verified = true
		} else {
			// Reportable but non-fatal; the caller inspects Verified
			log.Warn("destination failed hash verification after copy")
		}
	}

	log.Info("transfer finished",
		"exists", outcome.Exists,
		"transferred", outcome.Transferred,
		"verified", outcome.Verified,
	)

	return outcome, nil
}

// enginePaths expands the device-side name with the filesystem root; the
// local side passes through untouched
func (o *Orchestrator) enginePaths(direction domain.Direction, src, dst, deviceFS string) (string, string) {
	if deviceFS == "" {
		return src, dst
	}
	if direction == domain.DirectionPut {
		return src, deviceFS + dst
	}
	return deviceFS + src, dst
}
