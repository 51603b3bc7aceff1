package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/saviser/automation/pkg/channels/gochannel"
	"github.com/saviser/automation/pkg/engine"
	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/mocks"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/notify"
	"github.com/saviser/automation/pkg/payload"
	"github.com/saviser/automation/pkg/protocol"
	"github.com/saviser/automation/pkg/registry"
	"github.com/saviser/automation/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *engine.Engine) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	eng, err := engine.New(protocol.Dependencies{Logger: logger})
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(eng, nil, validator.New(validator.WithRequiredStructEnabled()))

	return web.NewApp(handlers), eng
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

func TestAPIHandlers_GetRules(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/rules", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Rules []struct {
			ID     string `json:"id"`
			Active bool   `json:"is_active"`
		} `json:"rules"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, registry.RuleAppointmentReminder, result.Rules[0].ID)
	assert.True(t, result.Rules[0].Active)
}

func TestAPIHandlers_CreateRule(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateRuleRequest{
				ID:      "critical-lab-result",
				Name:    "Critical lab result",
				Trigger: models.TriggerEvent,
				On:      "lab_result_ready",
				Conditions: []models.Condition{
					{Field: "resultado.critico", Operator: models.OperatorEquals, Value: true},
				},
				Actions: []models.ActionSpec{{
					Type: models.ActionNotification,
					Config: map[string]any{
						"channel":    "system",
						"template":   "high_priority_triage",
						"recipients": []string{"doctor"},
						"priority":   "urgent",
					},
				}},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid json",
			requestBody:    "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing actions",
			requestBody: web.CreateRuleRequest{
				ID: "no-actions", Name: "No actions", Trigger: models.TriggerEvent,
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown trigger",
			requestBody: web.CreateRuleRequest{
				ID: "cron-rule", Name: "Cron rule", Trigger: "cron",
				Actions: []models.ActionSpec{{Type: models.ActionRedistribute, Config: map[string]any{"criteria": "least_busy_doctor"}}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown action kind",
			requestBody: web.CreateRuleRequest{
				ID: "fax-rule", Name: "Fax rule", Trigger: models.TriggerTime,
				Actions: []models.ActionSpec{{Type: "send_fax"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "action missing required config",
			requestBody: web.CreateRuleRequest{
				ID: "assign-rule", Name: "Assign rule", Trigger: models.TriggerEvent,
				Actions: []models.ActionSpec{{Type: models.ActionAutoAssign, Config: map[string]any{"role": "doctor"}}},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, eng := setupTestApp(t)

			resp, _ := doJSON(t, app, http.MethodPost, "/rules", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				assert.Len(t, eng.Rules(), 6)
				assert.Equal(t, 6, eng.GetStats().ActiveRules)
			} else {
				assert.Len(t, eng.Rules(), 5)
			}
		})
	}
}

func TestAPIHandlers_ToggleRule(t *testing.T) {
	app, eng := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPatch, "/rules/"+registry.RuleHighPriorityTriage, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 4, eng.GetStats().ActiveRules)

	resp, _ = doJSON(t, app, http.MethodPatch, "/rules/unknown-rule", map[string]any{"is_active": false})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, "/rules/"+registry.RuleHighPriorityTriage, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 4, eng.GetStats().ActiveRules)
}

func TestAPIHandlers_GetStats(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, models.Stats{TotalRules: 5, ActiveRules: 5}, stats)
}

func TestAPIHandlers_TriggerEvent(t *testing.T) {
	automation := &mocks.MockAutomation{}
	automation.On("TriggerEvent", mock.Anything, events.TriageCreatedEvent, payload.Payload{"prioridad": "alta", "pacienteId": "P1"}).Once()
	automation.On("TriggerEvent", mock.Anything, events.EventType("lab_result_ready"), payload.Payload{}).Once()

	app := web.NewApp(web.NewAPIHandlers(automation, nil, validator.New()))

	resp, body := doJSON(t, app, http.MethodPost, "/events/triage_created", map[string]any{"prioridad": "alta", "pacienteId": "P1"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"type":"triage_created","dispatched":true}`, string(body))

	resp, _ = doJSON(t, app, http.MethodPost, "/events/lab_result_ready", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/events/triage_created", "[1, 2]")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	automation.AssertExpectations(t)
}

func TestAPIHandlers_Tick(t *testing.T) {
	automation := &mocks.MockAutomation{}
	automation.On("Tick", mock.Anything).Once()

	app := web.NewApp(web.NewAPIHandlers(automation, nil, validator.New()))

	resp, _ := doJSON(t, app, http.MethodPost, "/tick", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	automation.AssertExpectations(t)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	automation := &mocks.MockAutomation{}
	automation.On("GetStats").Return(models.Stats{TotalRules: 5, ActiveRules: 5})

	health := &mocks.MockHealthChecker{}
	health.On("HealthCheck", mock.Anything).Return(nil).Once()
	health.On("HealthCheck", mock.Anything).Return(errors.New("connection refused")).Once()

	app := web.NewApp(web.NewAPIHandlers(automation, health, validator.New()))

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"healthy"`)

	resp, body = doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "unavailable")

	health.AssertExpectations(t)
}

func TestAPIHandlers_GetNotifications(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger), gochannel.DefaultConfig)
	require.NoError(t, err)
	defer pub.Close()

	inbox := notify.NewInbox(notify.DefaultInboxSize, logger)
	require.NoError(t, inbox.Consume(context.Background(), sub))

	system, err := notify.NewSystemChannel(pub, logger)
	require.NoError(t, err)

	eng, err := engine.New(protocol.Dependencies{Logger: logger, Notifications: system})
	require.NoError(t, err)

	app := web.NewApp(web.NewAPIHandlers(eng, nil, validator.New()).WithNotificationFeed(inbox))

	resp, _ := doJSON(t, app, http.MethodPost, "/rules", map[string]any{
		"id":      "lab_alert",
		"name":    "Lab alert",
		"trigger": "event",
		"on":      "lab_result_received",
		"actions": []map[string]any{{
			"type": "notification",
			"config": map[string]any{
				"channel":    "system",
				"template":   "high_priority_triage",
				"recipients": []string{"D1"},
				"priority":   "high",
			},
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/events/lab_result_received", map[string]any{"estado": "urgente"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var result web.NotificationsResponse

	require.Eventually(t, func() bool {
		resp, body := doJSON(t, app, http.MethodGet, "/notifications?recipient=D1", nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}

		return json.Unmarshal(body, &result) == nil && result.Total == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "high_priority_triage", result.Notifications[0].Template)
	assert.Equal(t, "urgente", result.Notifications[0].Payload["estado"])

	resp, body := doJSON(t, app, http.MethodGet, "/notifications?recipient=D2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"notifications":[],"total":0}`, string(body))

	resp, _ = doJSON(t, app, http.MethodGet, "/notifications?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetNotificationsWithoutFeed(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/notifications", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "not consumed")
}
