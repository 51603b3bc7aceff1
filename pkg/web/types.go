// Package web provides HTTP request and response types for the automation API.
package web

import (
	"github.com/saviser/automation/pkg/models"
)

// CreateRuleRequest represents the request body for registering a new rule.
type CreateRuleRequest struct {
	ID         string              `json:"id"         validate:"required"`
	Name       string              `json:"name"       validate:"required,min=3"`
	Trigger    models.TriggerKind  `json:"trigger"    validate:"required,oneof=time event condition"`
	On         string              `json:"on,omitempty"`
	Conditions []models.Condition  `json:"conditions" validate:"dive"`
	Actions    []models.ActionSpec `json:"actions"    validate:"required,min=1,dive"`
	Active     *bool               `json:"is_active,omitempty"`
}

// Rule builds the domain rule. Rules are active unless the request says otherwise.
func (r CreateRuleRequest) Rule() (*models.Rule, error) {
	rule := &models.Rule{
		ID:         r.ID,
		Name:       r.Name,
		Trigger:    r.Trigger,
		On:         r.On,
		Conditions: r.Conditions,
		Active:     r.Active == nil || *r.Active,
	}

	for _, spec := range r.Actions {
		action, err := models.DecodeAction(spec)
		if err != nil {
			return nil, err
		}

		rule.Actions = append(rule.Actions, action)
	}

	return rule, nil
}

// ToggleRuleRequest represents the request body for enabling or disabling a rule.
type ToggleRuleRequest struct {
	Active *bool `json:"is_active" validate:"required"`
}

// RulesResponse lists the registered rules.
type RulesResponse struct {
	Rules []*models.Rule `json:"rules"`
	Total int            `json:"total"`
}

// TriggerEventResponse acknowledges a dispatched event.
type TriggerEventResponse struct {
	Type       string `json:"type"`
	Dispatched bool   `json:"dispatched"`
}

// NotificationsResponse lists system notifications.
type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}
