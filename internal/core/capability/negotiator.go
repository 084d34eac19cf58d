// Package capability detects and, on explicit opt-in, temporarily enables a
// device's support for bulk-copy operations, with a guaranteed rollback.
//
// Capability changes are potentially disruptive (enabling a transfer daemon,
// retuning channel window sizes), so the negotiator never applies a change
// without ForceCheckAndApply, and every applied change carries an inverse
// computed from the inspected prior state rather than an assumed one.
package capability

import (
	"context"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/dialect"
	"github.com/Ning0612/Devicesync/internal/domain"
	"github.com/Ning0612/Devicesync/internal/logger"
)

// Negotiator ensures the device can accept bulk copies
type Negotiator interface {
	// Ensure inspects (and per policy reconfigures) the device.
	// Policy declines surface as the decision, not as an error; errors
	// are reserved for channel failures during inspection.
	Ensure(ctx context.Context, policy domain.ForcePolicy) (domain.Decision, error)

	// Changed reports whether Ensure reconfigured the device and a
	// rollback is still pending
	Changed() bool

	// Cleanup replays the recorded rollback directives exactly once.
	// No-op when nothing was applied; safe to call repeatedly.
	Cleanup(ctx context.Context) error
}

// DeviceNegotiator implements Negotiator over an administrative channel and
// a device dialect. It holds transient state for one orchestration run:
// Unchecked -> Checked -> (Applied | Declined).
type DeviceNegotiator struct {
	admin   channel.AdminChannel
	dialect dialect.Dialect
	state   domain.CapabilityState
}

// NewDeviceNegotiator creates a negotiator for one run
func NewDeviceNegotiator(admin channel.AdminChannel, d dialect.Dialect) *DeviceNegotiator {
	return &DeviceNegotiator{
		admin:   admin,
		dialect: d,
	}
}

// Ensure implements Negotiator
func (n *DeviceNegotiator) Ensure(ctx context.Context, policy domain.ForcePolicy) (domain.Decision, error) {
	if policy == domain.ForceSkipCheck {
		// Caller already knows the device state
		return domain.DecisionNotChecked, nil
	}

	if err := n.admin.RaisePrivilege(ctx, n.dialect.PrivilegeLevel()); err != nil {
		return domain.DecisionDeclined, err
	}

	output, err := n.admin.SendCommand(ctx, n.dialect.CapabilityCommand(), 0)
	if err != nil {
		return domain.DecisionDeclined, err
	}

	plan := n.dialect.PlanCapability(output)
	if plan.Satisfied() {
		logger.Get().Debug("device already capable of bulk copy")
		return domain.DecisionCapable, nil
	}

	if policy == domain.ForceCheckOnly {
		logger.Get().Warn("device lacks bulk-copy capability and reconfiguration is not allowed",
			"missing", plan.Missing,
		)
		return domain.DecisionDeclined, nil
	}

	// ForceCheckAndApply
	if err := n.admin.SendConfig(ctx, plan.Missing); err != nil {
		// Some directives may have taken effect before the failing one;
		// revert everything best-effort before reporting upward
		logger.Get().Error("capability apply failed, reverting", "error", err)
		if revertErr := n.admin.SendConfig(ctx, reverse(plan.Inverse)); revertErr != nil {
			logger.Get().Error("best-effort reversion failed", "error", revertErr)
		}
		return domain.DecisionApplyFailed, nil
	}

	n.state = domain.CapabilityState{
		Applied:  plan.Missing,
		Rollback: reverse(plan.Inverse),
	}

	logger.Get().Info("bulk-copy capability enabled",
		"applied", n.state.Applied,
		"rollback", n.state.Rollback,
	)

	return domain.DecisionApplied, nil
}

// Changed implements Negotiator
func (n *DeviceNegotiator) Changed() bool {
	return n.state.Changed()
}

// Cleanup implements Negotiator
func (n *DeviceNegotiator) Cleanup(ctx context.Context) error {
	if !n.state.Changed() {
		return nil
	}

	rollback := n.state.Rollback
	// Consume the state first: the rollback is replayed at most once even
	// if the replay itself fails
	n.state = domain.CapabilityState{}

	logger.Get().Info("restoring device configuration", "directives", rollback)
	return n.admin.SendConfig(ctx, rollback)
}

// reverse returns directives in reverse order: changes are undone in the
// opposite order they were applied
func reverse(directives []domain.Directive) []domain.Directive {
	out := make([]domain.Directive, len(directives))
	for i, d := range directives {
		out[len(directives)-1-i] = d
	}
	return out
}

var _ Negotiator = (*DeviceNegotiator)(nil)
