package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ning0612/Devicesync/internal/channel/channeltest"
	"github.com/Ning0612/Devicesync/internal/dialect/iosxe"
	"github.com/Ning0612/Devicesync/internal/domain"
)

const remoteListing = `Directory of flash:/

   11  -rw-   419430400  Aug 1 2023 12:00:00 +00:00  img.bin

11353194496 bytes total (6189255680 bytes free)
`

// TestRemoteProbeExistingFile tests hash/size/free extraction over the admin channel
func TestRemoteProbeExistingFile(t *testing.T) {
	admin := channeltest.NewFakeAdmin()
	admin.Respond("verify /md5 flash:/img.bin",
		"verify /md5 (flash:/img.bin) = a5c8dcb3c53d32b3a87592dcb7344afd")
	admin.Respond("dir flash:/img.bin", remoteListing)

	p := NewRemoteProber(admin, iosxe.New(), 0)
	state, err := p.Probe(context.Background(), "img.bin", "flash:/")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if state.Fingerprint != "a5c8dcb3c53d32b3a87592dcb7344afd" {
		t.Errorf("fingerprint mismatch: got %s", state.Fingerprint)
	}
	if state.Size != 419430400 {
		t.Errorf("size mismatch: got %d, want 419430400", state.Size)
	}
	if state.Free != 6189255680 {
		t.Errorf("free mismatch: got %d, want 6189255680", state.Free)
	}
}

// TestRemoteProbeMissingFile tests that an unrecognizable hash token is the
// not-found sentinel, not a hard error
func TestRemoteProbeMissingFile(t *testing.T) {
	admin := channeltest.NewFakeAdmin()
	admin.Respond("verify /md5 flash:/nope.bin",
		"%Error verifying flash:/nope.bin (No such file or directory)")
	admin.Respond("dir flash:/nope.bin",
		"%Error opening flash:/nope.bin (No such file or directory)")

	p := NewRemoteProber(admin, iosxe.New(), 0)
	state, err := p.Probe(context.Background(), "nope.bin", "flash:/")
	if err != nil {
		t.Fatalf("missing device file must not be an error, got: %v", err)
	}

	if state.Exists() {
		t.Errorf("expected not-found sentinel, got %q", state.Fingerprint)
	}
	if state.Size != 0 {
		t.Errorf("size must be 0 when fingerprint is empty, got %d", state.Size)
	}
}

// TestRemoteProbeFreeSpaceBestEffort tests that a listing without a
// free-space marker reports 0 rather than failing the probe
func TestRemoteProbeFreeSpaceBestEffort(t *testing.T) {
	admin := channeltest.NewFakeAdmin()
	admin.Respond("verify /md5 flash:/img.bin",
		"verify /md5 (flash:/img.bin) = a5c8dcb3c53d32b3a87592dcb7344afd")
	admin.Respond("dir flash:/img.bin", "Directory of flash:/")

	p := NewRemoteProber(admin, iosxe.New(), 0)
	state, err := p.Probe(context.Background(), "img.bin", "flash:/")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if state.Free != 0 {
		t.Errorf("expected best-effort 0 free space, got %d", state.Free)
	}
}

// TestRemoteProbeHashTimeout tests that the integrity check runs under the
// extended hash timeout while the listing keeps the channel default
func TestRemoteProbeHashTimeout(t *testing.T) {
	admin := channeltest.NewFakeAdmin()
	admin.Respond("verify /md5 flash:/img.bin",
		"verify /md5 (flash:/img.bin) = a5c8dcb3c53d32b3a87592dcb7344afd")
	admin.Respond("dir flash:/img.bin", remoteListing)

	hashTimeout := 2 * time.Minute
	p := NewRemoteProber(admin, iosxe.New(), hashTimeout)
	if _, err := p.Probe(context.Background(), "img.bin", "flash:/"); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if len(admin.Timeouts) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(admin.Timeouts))
	}
	if admin.Timeouts[0] != hashTimeout {
		t.Errorf("hash command timeout = %v, want %v", admin.Timeouts[0], hashTimeout)
	}
	if admin.Timeouts[1] != 0 {
		t.Errorf("listing command timeout = %v, want the channel default (0)", admin.Timeouts[1])
	}
}

// TestRemoteProbeDefaultHashTimeout tests the fallback when no timeout is
// configured
func TestRemoteProbeDefaultHashTimeout(t *testing.T) {
	admin := channeltest.NewFakeAdmin()
	admin.Respond("verify /md5 flash:/img.bin",
		"verify /md5 (flash:/img.bin) = a5c8dcb3c53d32b3a87592dcb7344afd")
	admin.Respond("dir flash:/img.bin", remoteListing)

	p := NewRemoteProber(admin, iosxe.New(), 0)
	if _, err := p.Probe(context.Background(), "img.bin", "flash:/"); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if admin.Timeouts[0] != DefaultHashTimeout {
		t.Errorf("hash command timeout = %v, want %v", admin.Timeouts[0], DefaultHashTimeout)
	}
}

// TestRemoteProbeChannelFailure tests that a channel failure propagates
func TestRemoteProbeChannelFailure(t *testing.T) {
	admin := channeltest.NewFakeAdmin()
	admin.FailWith("verify /md5 flash:/img.bin", domain.ErrCommandTimeout)

	p := NewRemoteProber(admin, iosxe.New(), 0)
	_, err := p.Probe(context.Background(), "img.bin", "flash:/")
	if !errors.Is(err, domain.ErrCommandTimeout) {
		t.Fatalf("expected channel error to propagate, got: %v", err)
	}
}
