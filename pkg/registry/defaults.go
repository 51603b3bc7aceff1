package registry

import (
	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/payload"
)

// Symbolic recipients resolved by the notification receiver.
const (
	RecipientPatient   = "patient"
	RecipientDoctor    = "doctor"
	RecipientReception = "reception"
	RecipientAdmin     = "admin"
)

const (
	RuleAppointmentReminder = "appointment-reminder-24h"
	RuleHighPriorityTriage  = "high-priority-triage-rule"
	RulePatientFollowUp     = "patient-follow-up"
	RuleAppointmentConfirm  = "appointment-auto-confirm"
	RuleWorkloadBalance     = "doctor-workload-balance"
)

// DefaultRules returns fresh copies of the rules every engine starts with.
func DefaultRules() []*models.Rule {
	return []*models.Rule{
		{
			ID:      RuleAppointmentReminder,
			Name:    "Recordatorio de cita 24h antes",
			Trigger: models.TriggerTime,
			Conditions: []models.Condition{
				{Field: "appointment.dia", Operator: models.OperatorEquals, Value: payload.Tomorrow},
				{Field: "appointment.estado", Operator: models.OperatorEquals, Value: "programada"},
			},
			Actions: models.Actions{
				models.NotificationAction{
					Channel:    models.ChannelSMS,
					Template:   models.TemplateAppointmentReminder24h,
					Recipients: []string{RecipientPatient},
					Priority:   models.PriorityMedium,
				},
				models.NotificationAction{
					Channel:    models.ChannelSystem,
					Template:   models.TemplateAppointmentReminder24h,
					Recipients: []string{RecipientReception},
					Priority:   models.PriorityMedium,
				},
			},
			Active: true,
		},
		{
			ID:      RuleHighPriorityTriage,
			Name:    "Alerta de triaje de alta prioridad",
			Trigger: models.TriggerEvent,
			On:      string(events.TriageCreatedEvent),
			Conditions: []models.Condition{
				{Field: "prioridad", Operator: models.OperatorEquals, Value: "alta"},
			},
			Actions: models.Actions{
				models.NotificationAction{
					Channel:    models.ChannelPush,
					Template:   models.TemplateHighPriorityTriage,
					Recipients: []string{RecipientDoctor},
					Priority:   models.PriorityUrgent,
				},
				models.AutoAssignAction{Role: RecipientDoctor, Criteria: models.CriteriaAvailable},
			},
			Active: true,
		},
		{
			ID:      RulePatientFollowUp,
			Name:    "Seguimiento post-consulta",
			Trigger: models.TriggerTime,
			Conditions: []models.Condition{
				{Field: "consultation.fechaHora", Operator: models.OperatorDaysAgo, Value: 7},
				{Field: "consultation.estado", Operator: models.OperatorEquals, Value: "completada"},
			},
			Actions: models.Actions{
				models.NotificationAction{
					Channel:    models.ChannelSMS,
					Template:   models.TemplateFollowUpReminder,
					Recipients: []string{RecipientPatient},
					Priority:   models.PriorityMedium,
				},
				models.CreateTaskAction{AssignTo: RecipientDoctor, Task: "follow_up_call"},
			},
			Active: true,
		},
		{
			ID:      RuleAppointmentConfirm,
			Name:    "Confirmación automática de citas",
			Trigger: models.TriggerTime,
			Conditions: []models.Condition{
				{Field: "appointment.dia", Operator: models.OperatorEquals, Value: payload.Today},
				{Field: "appointment.estado", Operator: models.OperatorEquals, Value: "programada"},
			},
			Actions: models.Actions{
				models.UpdateStatusAction{Entity: "appointment", Field: "estado", Value: "confirmada"},
				models.NotificationAction{
					Channel:    models.ChannelSystem,
					Template:   models.TemplateAppointmentConfirmed,
					Recipients: []string{RecipientReception},
					Priority:   models.PriorityLow,
				},
			},
			Active: true,
		},
		{
			ID:      RuleWorkloadBalance,
			Name:    "Balanceo de carga de doctores",
			Trigger: models.TriggerEvent,
			On:      string(events.PatientAssignedEvent),
			Conditions: []models.Condition{
				{Field: "doctor.assigned_patients", Operator: models.OperatorGreaterThan, Value: 10},
			},
			Actions: models.Actions{
				models.RedistributeAction{Criteria: "least_busy_doctor"},
				models.NotificationAction{
					Channel:    models.ChannelSystem,
					Template:   models.TemplateWorkloadBalanced,
					Recipients: []string{RecipientAdmin},
					Priority:   models.PriorityHigh,
				},
			},
			Active: true,
		},
	}
}
