// Package dialect isolates device-specific command syntax and text parsing
// from the transfer core. The core only ever sees the Dialect contract; the
// state machine never branches on a device family.
package dialect

import "github.com/Ning0612/Devicesync/internal/domain"

// Dialect describes one device family: which commands to issue and how to
// extract structured facts from their textual output.
//
// Parsers are best-effort by contract: a parser that cannot find its token
// returns the zero value ("" or 0), never an error. "Not found" is an
// expected outcome for probes and must stay cheap to test.
type Dialect interface {
	// Name identifies the device family (e.g. "cisco_iosxe")
	Name() string

	// HashCommand returns the command computing a content hash of path
	HashCommand(path string) string

	// ParseHash extracts the hex hash token from HashCommand output.
	// Empty string if the output carries no recognizable hash.
	ParseHash(output string) string

	// ListCommand returns the command listing path and its storage
	ListCommand(path string) string

	// ParseFileSize extracts the byte size of the named file from
	// ListCommand output. 0 if not present.
	ParseFileSize(output, filename string) int64

	// ParseFreeSpace extracts the free bytes marker from ListCommand
	// output. 0 if the listing lacks one.
	ParseFreeSpace(output string) int64

	// RootCommand returns the command revealing the active filesystem root
	RootCommand() string

	// ParseRoot extracts the filesystem root (e.g. "flash:/") from
	// RootCommand output. Empty string if not detected.
	ParseRoot(output string) string

	// PrivilegeLevel names the privilege required for RootCommand and
	// configuration writes
	PrivilegeLevel() string

	// CapabilityCommand returns the read-only query showing the
	// configuration lines relevant to bulk-copy capability
	CapabilityCommand() string

	// PlanCapability compares CapabilityCommand output against the
	// required directive set and returns the delta with per-directive
	// inverses computed from the inspected prior state
	PlanCapability(output string) domain.CapabilityPlan

	// JoinPath joins a filesystem root and a file name the way the
	// device expects (e.g. "flash:/" + "img.bin" -> "flash:/img.bin")
	JoinPath(root, name string) string

	// KeepalivePattern is a harmless byte sequence for the administrative
	// channel; written during long copies to defeat its idle timeout
	KeepalivePattern() []byte
}
