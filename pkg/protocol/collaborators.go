// Package protocol defines the collaborators the automation engine drives. The clinical
// application owns patients, clinicians and appointments; the engine only reaches them through
// these interfaces.
package protocol

import (
	"context"
	"time"

	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/payload"
)

// ClinicianSummary is one entry of the active roster.
type ClinicianSummary struct {
	ID                    string `json:"id"`
	ActiveAssignmentCount int    `json:"active_assignment_count"`
}

// Directory lists clinicians available for assignment, in a stable order.
type Directory interface {
	ListActiveClinicians(ctx context.Context) ([]ClinicianSummary, error)
}

type AssignmentRequest struct {
	PatientID   string `json:"patient_id"`
	ClinicianID string `json:"clinician_id"`
	Reason      string `json:"reason"`
	Priority    string `json:"priority"`
	Notes       string `json:"notes"`
}

// Assignments creates patient to clinician assignments and returns the new assignment id.
type Assignments interface {
	CreateAssignment(ctx context.Context, req AssignmentRequest) (string, error)
}

// EntityRef points at a record owned by the clinical application, e.g. {appointment, 42}.
type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type StatusUpdater interface {
	SetField(ctx context.Context, ref EntityRef, field string, value any) error
}

// NotificationChannel hands a notification to its delivery medium.
type NotificationChannel interface {
	Deliver(ctx context.Context, notification models.Notification) error
}

// RebalanceResult reports the moves made by a Rebalancer.
type RebalanceResult struct {
	Criteria string           `json:"criteria"`
	Moved    int              `json:"moved"`
	Moves    []AssignmentMove `json:"moves,omitempty"`
}

type AssignmentMove struct {
	AssignmentID string `json:"assignment_id"`
	From         string `json:"from"`
	To           string `json:"to"`
}

// Rebalancer redistributes active assignments across the roster.
type Rebalancer interface {
	Rebalance(ctx context.Context, criteria string, roster []ClinicianSummary) (RebalanceResult, error)
}

// SnapshotSource returns the records time rules are evaluated against on each tick, for
// example {"appointment": {...}} per upcoming appointment.
type SnapshotSource interface {
	Snapshot(ctx context.Context, now time.Time) ([]payload.Payload, error)
}
