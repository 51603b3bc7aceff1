// Package web provides HTTP handlers and REST API endpoints for managing automation rules.
package web

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/payload"
)

// Automation is the part of the engine exposed over HTTP.
type Automation interface {
	Rules() []*models.Rule
	AddRule(rule *models.Rule) error
	ToggleRule(id string, active bool) bool
	GetStats() models.Stats
	TriggerEvent(ctx context.Context, eventType events.EventType, p payload.Payload)
	Tick(ctx context.Context)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NotificationFeed serves system notifications already published to the UI topic.
type NotificationFeed interface {
	Recent(recipient string, limit int) []models.Notification
}

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 500
)

var ErrNoNotificationFeed = errors.New("system notifications are not consumed by this instance")

type APIHandlers struct {
	automation    Automation
	health        HealthChecker
	validator     *validator.Validate
	notifications NotificationFeed
}

// NewAPIHandlers wires the handlers. health may be nil when the engine runs without storage.
func NewAPIHandlers(automation Automation, health HealthChecker, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		automation: automation,
		health:     health,
		validator:  validator,
	}
}

// WithNotificationFeed enables GET /notifications.
func (h *APIHandlers) WithNotificationFeed(feed NotificationFeed) *APIHandlers {
	h.notifications = feed

	return h
}

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	rules := h.automation.Rules()

	return c.JSON(RulesResponse{Rules: rules, Total: len(rules)})
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	var req CreateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rule, err := req.Rule()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.automation.AddRule(rule); err != nil {
		if errors.Is(err, models.ErrInvalidRule) {
			return badRequest(c, err.Error())
		}

		return err
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (h *APIHandlers) ToggleRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	var req ToggleRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !h.automation.ToggleRule(id, *req.Active) {
		return notFound(c, "Rule not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	return c.JSON(h.automation.GetStats())
}

// TriggerEvent dispatches the JSON object in the body as the payload of an event. An empty body
// dispatches an empty payload.
func (h *APIHandlers) TriggerEvent(c fiber.Ctx) error {
	eventType := c.Params("type")
	if eventType == "" {
		return badRequest(c, "Event type is required")
	}

	p := payload.Payload{}

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&p); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	h.automation.TriggerEvent(c.Context(), events.EventType(eventType), p)

	return c.Status(fiber.StatusAccepted).JSON(TriggerEventResponse{Type: eventType, Dispatched: true})
}

// Tick evaluates time rules immediately.
func (h *APIHandlers) Tick(c fiber.Ctx) error {
	h.automation.Tick(c.Context())

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if h.health != nil {
		if err := h.health.HealthCheck(c.Context()); err != nil {
			return unavailable(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"message":   "SAVISER automation is healthy",
		"stats":     h.automation.GetStats(),
		"timestamp": time.Now().UTC(),
	})
}

// GetNotifications lists recent system notifications, newest first. The optional recipient query
// parameter filters by addressee and limit caps the result.
func (h *APIHandlers) GetNotifications(c fiber.Ctx) error {
	if h.notifications == nil {
		return unavailable(c, ErrNoNotificationFeed)
	}

	limit := defaultNotificationLimit

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxNotificationLimit {
			return badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxNotificationLimit))
		}

		limit = parsed
	}

	notifications := h.notifications.Recent(c.Query("recipient"), limit)

	return c.JSON(NotificationsResponse{Notifications: notifications, Total: len(notifications)})
}
