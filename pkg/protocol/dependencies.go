package protocol

import "log/slog"

// Dependencies contains the collaborators an engine is built from. Nil collaborators disable the
// actions that need them; those actions fail and are logged.
type Dependencies struct {
	Logger        *slog.Logger
	Directory     Directory
	Assignments   Assignments
	Status        StatusUpdater
	Notifications NotificationChannel
	Rebalancer    Rebalancer
	Snapshots     SnapshotSource
}
