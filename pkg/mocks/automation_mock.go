package mocks

import (
	"context"

	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/payload"
	"github.com/stretchr/testify/mock"
)

// MockAutomation is a mock implementation of web.Automation.
type MockAutomation struct {
	mock.Mock
}

func (m *MockAutomation) Rules() []*models.Rule {
	args := m.Called()

	rules, _ := args.Get(0).([]*models.Rule)

	return rules
}

func (m *MockAutomation) AddRule(rule *models.Rule) error {
	args := m.Called(rule)

	return args.Error(0)
}

func (m *MockAutomation) ToggleRule(id string, active bool) bool {
	args := m.Called(id, active)

	return args.Bool(0)
}

func (m *MockAutomation) GetStats() models.Stats {
	args := m.Called()

	stats, _ := args.Get(0).(models.Stats)

	return stats
}

func (m *MockAutomation) TriggerEvent(ctx context.Context, eventType events.EventType, p payload.Payload) {
	m.Called(ctx, eventType, p)
}

func (m *MockAutomation) Tick(ctx context.Context) {
	m.Called(ctx)
}

// MockHealthChecker is a mock implementation of web.HealthChecker.
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
