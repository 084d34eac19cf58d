// Package iosxe implements the dialect contract for Cisco IOS-XE devices.
package iosxe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ning0612/Devicesync/internal/dialect"
	"github.com/Ning0612/Devicesync/internal/domain"
)

const (
	// scpEnableDirective turns on the SCP server daemon
	scpEnableDirective = "ip scp server enable"

	// requiredWindowSize is the SSH window size the bulk channel is tuned
	// to; small default windows make large copies crawl
	requiredWindowSize = 65536
)

var (
	// "verify /md5 (flash:/img.bin) = a5c8dcb3c53d32b3a87592dcb7344afd"
	hashRe = regexp.MustCompile(`(?m)^verify.*=\s*([0-9a-fA-F]{32})`)

	// "11353194496 bytes total (6189255680 bytes free)"
	freeRe = regexp.MustCompile(`\((\d+) bytes free\)`)

	// "Directory of flash:/"
	rootRe = regexp.MustCompile(`(?m)Directory of\s+(\S+?)/?\s*$`)

	scpEnabledRe = regexp.MustCompile(`(?m)^ip scp server enable\s*$`)
	windowSizeRe = regexp.MustCompile(`(?m)^ip ssh window-size (\d+)\s*$`)
)

// Dialect implements dialect.Dialect for IOS-XE
type Dialect struct{}

// New returns the IOS-XE dialect
func New() *Dialect {
	return &Dialect{}
}

// Name identifies the device family
func (d *Dialect) Name() string {
	return "cisco_iosxe"
}

// HashCommand returns the MD5 verification command for path
func (d *Dialect) HashCommand(path string) string {
	return fmt.Sprintf("verify /md5 %s", path)
}

// ParseHash extracts the 32-char MD5 token, or "" when the file was not found
func (d *Dialect) ParseHash(output string) string {
	m := hashRe.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// ListCommand returns the directory listing command for path
func (d *Dialect) ListCommand(path string) string {
	return fmt.Sprintf("dir %s", path)
}

// ParseFileSize extracts the byte size of filename from a dir listing
//
// Listing rows look like:
//
//	11  -rw-   419430400  Aug 1 2023 12:00:00 +00:00  cat9k_iosxe.bin
func (d *Dialect) ParseFileSize(output, filename string) int64 {
	re, err := regexp.Compile(`(?m)^\s*\d+\s+[rwx-]+\s+(\d+)\s+.*` + regexp.QuoteMeta(filename) + `\s*$`)
	if err != nil {
		return 0
	}
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	size, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return size
}

// ParseFreeSpace extracts the "bytes free" marker, 0 when the listing lacks one
func (d *Dialect) ParseFreeSpace(output string) int64 {
	m := freeRe.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	free, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return free
}

// RootCommand reveals the active filesystem root
func (d *Dialect) RootCommand() string {
	return "dir | include Directory of"
}

// ParseRoot extracts the filesystem root, normalized to end with "/"
func (d *Dialect) ParseRoot(output string) string {
	m := rootRe.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return strings.TrimSuffix(m[1], "/") + "/"
}

// PrivilegeLevel names the mode required for dir and configuration writes
func (d *Dialect) PrivilegeLevel() string {
	return "privilege_exec"
}

// CapabilityCommand returns the read-only query for SCP-relevant config lines
func (d *Dialect) CapabilityCommand() string {
	return "show running-config | include ip scp server enable|ip ssh window-size"
}

// PlanCapability computes the missing directives and their exact inverses.
//
// The inverse of a directive depends on the inspected prior state: a
// window-size that existed with another value rolls back to that value, not
// to a bare "no" form.
func (d *Dialect) PlanCapability(output string) domain.CapabilityPlan {
	var plan domain.CapabilityPlan

	if !scpEnabledRe.MatchString(output) {
		plan.Missing = append(plan.Missing, domain.Directive(scpEnableDirective))
		plan.Inverse = append(plan.Inverse, domain.Directive("no "+scpEnableDirective))
	}

	required := domain.Directive(fmt.Sprintf("ip ssh window-size %d", requiredWindowSize))
	if m := windowSizeRe.FindStringSubmatch(output); m != nil {
		prior, err := strconv.Atoi(m[1])
		if err == nil && prior != requiredWindowSize {
			plan.Missing = append(plan.Missing, required)
			plan.Inverse = append(plan.Inverse, domain.Directive(fmt.Sprintf("ip ssh window-size %d", prior)))
		}
	} else {
		plan.Missing = append(plan.Missing, required)
		plan.Inverse = append(plan.Inverse, domain.Directive("no ip ssh window-size"))
	}

	return plan
}

// JoinPath joins a filesystem root and a file name the way IOS-XE expects
func (d *Dialect) JoinPath(root, name string) string {
	if root == "" {
		return name
	}
	if strings.HasSuffix(root, "/") || strings.HasSuffix(root, ":") {
		return root + name
	}
	return root + "/" + name
}

// KeepalivePattern is CTRL-L, which refreshes the prompt and is harmless to
// send while the session idles
func (d *Dialect) KeepalivePattern() []byte {
	return []byte{0x0c}
}

var _ dialect.Dialect = (*Dialect)(nil)
