package models

import (
	"time"

	"github.com/saviser/automation/pkg/payload"
)

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Notification channels known to the engine. Only ChannelSystem is required to be present.
const (
	ChannelSystem = "system"
	ChannelEmail  = "email"
	ChannelSMS    = "sms"
	ChannelPush   = "push"
)

// Template catalog.
const (
	TemplateAppointmentReminder24h = "appointment_reminder_24h"
	TemplateHighPriorityTriage     = "high_priority_triage"
	TemplatePatientAssigned        = "patient_assigned"
	TemplateFollowUpReminder       = "follow_up_reminder"
	TemplateAppointmentConfirmed   = "appointment_confirmed"
	TemplateWorkloadBalanced       = "workload_balanced"
	TemplateTaskCreated            = "task_created"
)

// Notification is handed to a notification channel. Template text is resolved by the receiver.
type Notification struct {
	ID         string          `json:"id"`
	Channel    string          `json:"channel"`
	Template   string          `json:"template"`
	Recipients []string        `json:"recipients"`
	Priority   Priority        `json:"priority"`
	Payload    payload.Payload `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`

	// Delivered is set on the engine's copy once the channel accepted the notification. It is
	// not part of what channels publish.
	Delivered bool `json:"-"`
}

// TaskStatusPending is the only status the engine assigns to tasks.
const TaskStatusPending = "pending"

// Task is created by CreateTaskAction. Persisting it is up to task_created subscribers.
type Task struct {
	ID        string          `json:"id"`
	AssignTo  string          `json:"assignTo"`
	Task      string          `json:"task"`
	Payload   payload.Payload `json:"payload,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created"`
}

// AsPayload converts the task into an event payload.
func (t Task) AsPayload() payload.Payload {
	return payload.Payload{
		"id":       t.ID,
		"assignTo": t.AssignTo,
		"task":     t.Task,
		"data":     map[string]any(t.Payload),
		"status":   t.Status,
		"created":  t.CreatedAt,
	}
}
