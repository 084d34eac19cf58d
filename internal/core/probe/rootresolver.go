package probe

import (
	"context"

	"github.com/Ning0612/Devicesync/internal/channel"
	"github.com/Ning0612/Devicesync/internal/dialect"
	"github.com/Ning0612/Devicesync/internal/logger"
)

// RootResolver discovers the device's active filesystem root over the
// administrative channel. The query needs elevated privilege, acquired
// before it is issued.
type RootResolver struct {
	admin   channel.AdminChannel
	dialect dialect.Dialect
}

// NewRootResolver creates a resolver for one device session
func NewRootResolver(admin channel.AdminChannel, d dialect.Dialect) *RootResolver {
	return &RootResolver{
		admin:   admin,
		dialect: d,
	}
}

// ResolveRoot implements channel.StorageRootResolver. An empty string with
// nil error means the device did not reveal a root.
func (r *RootResolver) ResolveRoot(ctx context.Context) (string, error) {
	if err := r.admin.RaisePrivilege(ctx, r.dialect.PrivilegeLevel()); err != nil {
		return "", err
	}

	output, err := r.admin.SendCommand(ctx, r.dialect.RootCommand(), 0)
	if err != nil {
		return "", err
	}

	root := r.dialect.ParseRoot(output)
	logger.Get().Debug("device filesystem root resolved", "root", root)
	return root, nil
}

var _ channel.StorageRootResolver = (*RootResolver)(nil)
