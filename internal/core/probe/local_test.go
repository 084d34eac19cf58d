package probe

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Ning0612/Devicesync/internal/core/checksum"
	"github.com/Ning0612/Devicesync/internal/testutil"
)

// TestLocalProbeExistingFile tests fingerprint, size and free space of a real file
func TestLocalProbeExistingFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	content := []byte("hello world")
	path := testutil.CreateTestFile(t, dir, "image.bin", content)

	p := NewLocalProber(checksum.MD5)
	state, err := p.Probe(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if state.Fingerprint != testutil.MD5Hex(content) {
		t.Errorf("fingerprint mismatch: got %s, want %s", state.Fingerprint, testutil.MD5Hex(content))
	}
	if state.Size != int64(len(content)) {
		t.Errorf("size mismatch: got %d, want %d", state.Size, len(content))
	}
	if state.Free <= 0 {
		t.Errorf("expected positive free space, got %d", state.Free)
	}
}

// TestLocalProbeMissingFile tests the not-found sentinel: empty fingerprint,
// zero size, no error
func TestLocalProbeMissingFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	p := NewLocalProber(checksum.MD5)
	state, err := p.Probe(context.Background(), filepath.Join(dir, "nope.bin"), "")
	if err != nil {
		t.Fatalf("missing file must not be an error, got: %v", err)
	}

	if state.Exists() {
		t.Errorf("expected not-found sentinel, got fingerprint %q", state.Fingerprint)
	}
	if state.Size != 0 {
		t.Errorf("size must be 0 when fingerprint is empty, got %d", state.Size)
	}
	// Free space of the existing parent directory is still reported
	if state.Free <= 0 {
		t.Errorf("expected free space of containing directory, got %d", state.Free)
	}
}

// TestLocalProbeStorageOverride tests that an explicit storage path is used
// for the free-space check
func TestLocalProbeStorageOverride(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	path := testutil.CreateTestFile(t, dir, "image.bin", []byte("x"))

	p := NewLocalProber(checksum.MD5)
	state, err := p.Probe(context.Background(), path, dir)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if state.Free <= 0 {
		t.Errorf("expected free space for override path, got %d", state.Free)
	}

	// Inaccessible override reports 0, not an error
	state, err = p.Probe(context.Background(), path, filepath.Join(dir, "missing-dir"))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if state.Free != 0 {
		t.Errorf("expected 0 free space for missing override, got %d", state.Free)
	}
}
