package probe

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Ning0612/Devicesync/internal/core/checksum"
	"github.com/Ning0612/Devicesync/internal/domain"
)

// LocalProber implements Prober against the operator's filesystem
type LocalProber struct {
	calc checksum.Calculator
	algo checksum.Algorithm
}

// NewLocalProber creates a local prober fingerprinting with the given algorithm
func NewLocalProber(algo checksum.Algorithm) *LocalProber {
	return &LocalProber{
		calc: checksum.NewDefaultCalculator(),
		algo: algo,
	}
}

// Probe inspects a local file. Any access failure (not found, permission)
// yields the empty-fingerprint sentinel; free-space inspection is
// best-effort and reports 0 on failure.
func (p *LocalProber) Probe(ctx context.Context, name, storage string) (domain.FileState, error) {
	var state domain.FileState

	f, err := os.Open(name)
	if err == nil {
		fingerprint, calcErr := p.calc.Calculate(ctx, f, p.algo)
		f.Close()
		if calcErr != nil {
			// Context cancellation still surfaces; a read failure
			// mid-hash means the state is unknowable
			if ctx.Err() != nil {
				return domain.FileState{}, calcErr
			}
		} else if info, statErr := os.Stat(name); statErr == nil {
			state.Fingerprint = fingerprint
			state.Size = info.Size()
		}
	}

	// Free space of the override location, or the file's directory
	path := storage
	if path == "" {
		path = filepath.Dir(name)
	}
	if path == "" {
		path = "."
	}
	if free, err := diskFree(path); err == nil {
		state.Free = free
	}

	return state, nil
}

var _ Prober = (*LocalProber)(nil)
