// Package probe computes a FileState (fingerprint, size, free space) for a
// file, behind one contract with two variants: the operator's local
// filesystem and the managed device's filesystem reached over the
// administrative channel. Callers substitute either without branching.
package probe

import (
	"context"

	"github.com/Ning0612/Devicesync/internal/domain"
)

// Prober inspects one file at one location.
//
// "Not found" is reported as the empty-fingerprint sentinel in the returned
// FileState, never as an error. Errors are reserved for channel failures.
type Prober interface {
	// Probe inspects name. storage optionally overrides the location
	// whose free space is checked (a directory locally, a filesystem
	// root like "flash:/" on the device).
	Probe(ctx context.Context, name, storage string) (domain.FileState, error)
}
