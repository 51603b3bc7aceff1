package mocks

import (
	"context"
	"time"

	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/payload"
	"github.com/saviser/automation/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockDirectory is a mock implementation of protocol.Directory.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ListActiveClinicians(ctx context.Context) ([]protocol.ClinicianSummary, error) {
	args := m.Called(ctx)

	roster, _ := args.Get(0).([]protocol.ClinicianSummary)

	return roster, args.Error(1)
}

// MockAssignments is a mock implementation of protocol.Assignments.
type MockAssignments struct {
	mock.Mock
}

func (m *MockAssignments) CreateAssignment(ctx context.Context, req protocol.AssignmentRequest) (string, error) {
	args := m.Called(ctx, req)

	return args.String(0), args.Error(1)
}

// MockStatusUpdater is a mock implementation of protocol.StatusUpdater.
type MockStatusUpdater struct {
	mock.Mock
}

func (m *MockStatusUpdater) SetField(ctx context.Context, ref protocol.EntityRef, field string, value any) error {
	args := m.Called(ctx, ref, field, value)

	return args.Error(0)
}

// MockNotificationChannel is a mock implementation of protocol.NotificationChannel.
type MockNotificationChannel struct {
	mock.Mock
}

func (m *MockNotificationChannel) Deliver(ctx context.Context, notification models.Notification) error {
	args := m.Called(ctx, notification)

	return args.Error(0)
}

// MockRebalancer is a mock implementation of protocol.Rebalancer.
type MockRebalancer struct {
	mock.Mock
}

func (m *MockRebalancer) Rebalance(ctx context.Context, criteria string, roster []protocol.ClinicianSummary) (protocol.RebalanceResult, error) {
	args := m.Called(ctx, criteria, roster)

	result, _ := args.Get(0).(protocol.RebalanceResult)

	return result, args.Error(1)
}

// MockSnapshotSource is a mock implementation of protocol.SnapshotSource.
type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) Snapshot(ctx context.Context, now time.Time) ([]payload.Payload, error) {
	args := m.Called(ctx, now)

	records, _ := args.Get(0).([]payload.Payload)

	return records, args.Error(1)
}

// MockEmitter is a mock implementation of actions.Emitter.
type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) Emit(ctx context.Context, eventType events.EventType, p payload.Payload) {
	m.Called(ctx, eventType, p)
}
