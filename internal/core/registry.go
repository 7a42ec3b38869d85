// Registry interface for versioned machine snapshots.
package core

import (
	"context"
	"errors"
	"fmt"
)

// Registry manages versioned snapshots of running Machine instances.
type Registry interface {
	// Register saves current snapshot with computed version.
	Register(ctx context.Context, machineID string, snapshot MachineSnapshot) error

	// Latest returns the most recent snapshot for machineID.
	Latest(ctx context.Context, machineID string) (MachineSnapshot, error)

	// Version returns snapshot for specific version.
	Version(ctx context.Context, machineID, version string) (MachineSnapshot, error)

	// ListVersions returns versions for machineID, newest first.
	ListVersions(ctx context.Context, machineID string) ([]string, error)

	// ListMachines returns all machine IDs.
	ListMachines(ctx context.Context) ([]string, error)
}

var (
	ErrNotFound     = errors.New("version or machine not found")
	ErrExists       = errors.New("version already exists")
	ErrInvalidState = errors.New("invalid machine state for versioning")
)

// SnapshotVersion is the registry version of a snapshot: the chart version
// and the transition sequence, so versions of one instance never collide.
func SnapshotVersion(s MachineSnapshot) (string, error) {
	if s.Current == "" {
		return "", fmt.Errorf("%w: no active state", ErrInvalidState)
	}
	return fmt.Sprintf("%s.%d", s.ConfigVersion, s.Sequence), nil
}
