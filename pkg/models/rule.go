// Package models defines the core domain models for clinical automation rules
package models

import (
	"time"
)

// TriggerKind is the reason a rule is considered.
type TriggerKind string

const (
	TriggerTime      TriggerKind = "time"      // Evaluated on every scheduler tick
	TriggerEvent     TriggerKind = "event"     // Evaluated when an event is published
	TriggerCondition TriggerKind = "condition" // Reserved, never selected by the engine
)

// Rule combines a trigger kind, conditions and actions.
type Rule struct {
	ID           string      `json:"id"                      validate:"required"`
	Name         string      `json:"name"                    validate:"required"`
	Trigger      TriggerKind `json:"trigger"                 validate:"required,oneof=time event condition"`
	On           string      `json:"on,omitempty"` // Event type for event rules, empty matches every type
	Conditions   []Condition `json:"conditions"              validate:"dive"`
	Actions      Actions     `json:"actions"                 validate:"required,min=1"`
	Active       bool        `json:"is_active"`
	LastExecuted *time.Time  `json:"last_executed,omitempty"`
}

// ListensTo reports whether an event rule is bound to eventType.
func (r *Rule) ListensTo(eventType string) bool {
	return r.On == "" || r.On == eventType
}

// ExecutedOn reports whether the rule last ran on the same calendar day as day.
func (r *Rule) ExecutedOn(day time.Time) bool {
	if r.LastExecuted == nil {
		return false
	}

	last := r.LastExecuted.In(day.Location())
	ly, lm, ld := last.Date()
	dy, dm, dd := day.Date()

	return ly == dy && lm == dm && ld == dd
}

// Clone returns a copy that shares no mutable state with r.
func (r *Rule) Clone() *Rule {
	out := *r

	out.Conditions = append([]Condition(nil), r.Conditions...)
	out.Actions = append(Actions(nil), r.Actions...)

	if r.LastExecuted != nil {
		last := *r.LastExecuted
		out.LastExecuted = &last
	}

	return &out
}

// Stats summarises the registry.
type Stats struct {
	TotalRules    int `json:"total_rules"`
	ActiveRules   int `json:"active_rules"`
	ExecutedToday int `json:"executed_today"`
}
