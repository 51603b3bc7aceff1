// Package events defines the event kinds exchanged by the automation engine.
package events

import (
	"time"

	"github.com/saviser/automation/pkg/payload"
)

type EventType string

const (
	// Domain events published by the surrounding service.
	TriageCreatedEvent         EventType = "triage_created"
	ConsultationCompletedEvent EventType = "consultation_completed"

	// Events produced by the engine itself.
	ConsultationFollowUpEvent EventType = "consultation_follow_up"
	PatientAssignedEvent      EventType = "patient_assigned"
	TaskCreatedEvent          EventType = "task_created"
	WorkloadBalancedEvent     EventType = "workload_balanced"
	AppointmentReminderEvent  EventType = "appointment_reminder"
)

// Event is a transient value dispatched to rules and subscribers.
type Event struct {
	Type       EventType       `json:"type"`
	Payload    payload.Payload `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func New(eventType EventType, p payload.Payload, at time.Time) Event {
	if p == nil {
		p = payload.Payload{}
	}

	return Event{
		Type:       eventType,
		Payload:    p,
		OccurredAt: at,
	}
}

func (e Event) GetType() EventType {
	return e.Type
}
