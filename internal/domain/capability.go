package domain

import "fmt"

// Directive is a single device configuration line, applied or replayed verbatim
type Directive string

// ForcePolicy controls whether capability negotiation may reconfigure the device
type ForcePolicy int

const (
	// ForceSkipCheck performs no inspection at all; the caller already
	// knows the device state
	ForceSkipCheck ForcePolicy = iota

	// ForceCheckOnly inspects the configuration but never changes it.
	// A missing capability is a hard stop for the transfer.
	ForceCheckOnly

	// ForceCheckAndApply inspects and, if needed, applies the missing
	// directives with an exact rollback recorded
	ForceCheckAndApply
)

// String returns the string representation of the policy
func (p ForcePolicy) String() string {
	switch p {
	case ForceSkipCheck:
		return "skip"
	case ForceCheckOnly:
		return "check"
	case ForceCheckAndApply:
		return "apply"
	default:
		return "unknown"
	}
}

// ParseForcePolicy parses a string into a ForcePolicy (case-sensitive,
// config file and flag values)
func ParseForcePolicy(s string) (ForcePolicy, error) {
	switch s {
	case "skip":
		return ForceSkipCheck, nil
	case "check":
		return ForceCheckOnly, nil
	case "apply":
		return ForceCheckAndApply, nil
	default:
		return ForceCheckOnly, fmt.Errorf("unknown force policy %q (want skip, check or apply)", s)
	}
}

// Decision is the outcome of one capability negotiation
type Decision int

const (
	// DecisionNotChecked means no inspection happened (ForceSkipCheck)
	DecisionNotChecked Decision = iota

	// DecisionCapable means the device already accepts bulk copies,
	// nothing was changed
	DecisionCapable

	// DecisionApplied means missing directives were applied and a
	// rollback is pending
	DecisionApplied

	// DecisionDeclined means the device is not capable and the policy
	// forbade changing it
	DecisionDeclined

	// DecisionApplyFailed means the configuration write failed; whatever
	// was applied has been reverted best-effort
	DecisionApplyFailed
)

// Capable reports whether the transfer may proceed after this decision
func (d Decision) Capable() bool {
	switch d {
	case DecisionNotChecked, DecisionCapable, DecisionApplied:
		return true
	}
	return false
}

// String returns the string representation of the decision
func (d Decision) String() string {
	switch d {
	case DecisionNotChecked:
		return "not-checked"
	case DecisionCapable:
		return "capable"
	case DecisionApplied:
		return "applied"
	case DecisionDeclined:
		return "declined"
	case DecisionApplyFailed:
		return "apply-failed"
	default:
		return "unknown"
	}
}

// CapabilityState holds the configuration changes of one orchestration run.
// Created fresh at negotiation time, consumed exactly once by cleanup,
// never persisted.
type CapabilityState struct {
	// Applied directives, in application order. Empty if none were needed.
	Applied []Directive

	// Rollback directives that restore the pre-negotiation configuration,
	// in the exact order they must be replayed. A rollback entry is
	// computed from the inspected prior state (e.g. restoring a previous
	// numeric parameter), not assumed to be a simple inverse.
	Rollback []Directive
}

// Changed reports whether the negotiation reconfigured the device
func (s *CapabilityState) Changed() bool {
	return s != nil && len(s.Applied) > 0
}

// CapabilityPlan is the delta a dialect computed from the device
// configuration: which required directives are missing, and how to undo
// each one if it gets applied.
type CapabilityPlan struct {
	// Missing directives, in the order they must be applied
	Missing []Directive

	// Inverse holds, for each Missing entry, the directive restoring the
	// inspected prior state (e.g. the previous numeric value, or a "no"
	// form when the parameter was absent). len(Inverse) == len(Missing).
	Inverse []Directive
}

// Satisfied reports whether the device already carries every required directive
func (p CapabilityPlan) Satisfied() bool {
	return len(p.Missing) == 0
}
