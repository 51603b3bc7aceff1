// Package persistence defines the storage-backed collaborators of the automation engine.
package persistence

import (
	"context"

	"github.com/saviser/automation/pkg/protocol"
)

// Persistence backs every collaborator the engine needs from the clinical database.
type Persistence interface {
	protocol.Directory
	protocol.Assignments
	protocol.StatusUpdater
	protocol.Rebalancer
	protocol.SnapshotSource

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
