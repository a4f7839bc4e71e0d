package port

import (
	"context"

	"github.com/berfenger/froniuslights/internal/core/domain"
)

// SnapshotSource returns the current site power flow. A non-nil error means
// the snapshot is unavailable; the source has already logged the cause.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

type IdentitySource interface {
	GetDeviceIdentity(ctx context.Context) (domain.DeviceIdentity, error)
}

type InverterService interface {
	SnapshotSource
	IdentitySource
}
