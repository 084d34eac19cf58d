package domain

import "time"

// Direction defines which way the file moves over the bulk-copy channel
type Direction string

const (
	// DirectionPut uploads a local file to the device
	DirectionPut Direction = "put"

	// DirectionGet downloads a file from the device
	DirectionGet Direction = "get"
)

// IsValid checks if the direction is a known value
func (d Direction) IsValid() bool {
	switch d {
	case DirectionPut, DirectionGet:
		return true
	}
	return false
}

// TransferOptions controls a single transfer run
type TransferOptions struct {
	// VerifyHash enables fingerprint comparison before and after the copy.
	// Disabling it also disables the overwrite safety check, because
	// destination staleness is never probed without hashing.
	VerifyHash bool

	// Overwrite allows replacing a destination whose fingerprint differs
	// from the source. Ignored (never reached) when fingerprints match.
	Overwrite bool

	// ForcePolicy controls capability negotiation, see ForcePolicy values
	ForcePolicy ForcePolicy

	// Cleanup replays recorded rollback directives after the copy
	Cleanup bool

	// DeviceFS overrides the device filesystem root (e.g. "flash:/").
	// Autodetected when empty.
	DeviceFS string

	// KeepaliveInterval is how often a no-op byte is written on the
	// administrative channel during the copy. 0 disables keepalives.
	KeepaliveInterval time.Duration

	// BlockSize for the bulk-copy stream. Defaults to 64 KiB when 0.
	BlockSize int
}

// DefaultTransferOptions returns the recommended defaults
func DefaultTransferOptions() TransferOptions {
	return TransferOptions{
		VerifyHash:        true,
		Overwrite:         false,
		ForcePolicy:       ForceCheckOnly,
		Cleanup:           true,
		KeepaliveInterval: 30 * time.Second,
		BlockSize:         64 * 1024,
	}
}

// TransferOutcome is the result of one orchestration run.
//
// Policy declines (source missing, overwrite refused, insufficient space,
// capability declined) are reported through these fields, never as errors.
// Verified is the single field callers should treat as "did it succeed".
type TransferOutcome struct {
	// Exists is true if the destination had any content before or after the run
	Exists bool

	// Transferred is true iff bytes actually moved over the bulk channel
	Transferred bool

	// Verified is true iff the destination fingerprint matched the source
	// fingerprint at the end of the run
	Verified bool
}
