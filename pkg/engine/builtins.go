package engine

import (
	"context"
	"fmt"

	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
)

func (e *Engine) installBuiltins() {
	e.bus.Subscribe(events.ConsultationCompletedEvent, e.scheduleFollowUp)
	e.bus.Subscribe(events.PatientAssignedEvent, e.notifyAssignedClinician)
	e.bus.Subscribe(events.TaskCreatedEvent, e.notifyTaskAssignee)
}

func (e *Engine) scheduleFollowUp(_ context.Context, event events.Event) error {
	p := event.Payload.Clone()

	_, err := e.ScheduleAfter(string(events.ConsultationFollowUpEvent), FollowUpDelay, func(ctx context.Context) error {
		e.TriggerEvent(ctx, events.ConsultationFollowUpEvent, p)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to schedule consultation follow-up: %w", err)
	}

	return nil
}

func (e *Engine) notifyAssignedClinician(ctx context.Context, event events.Event) error {
	clinicianID, ok := event.Payload.String("clinicianId")
	if !ok {
		clinicianID, ok = event.Payload.String("doctorId")
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingRecipient, event.Type)
	}

	_, err := e.executor.Notify(ctx, models.NotificationAction{
		Channel:    models.ChannelSystem,
		Template:   models.TemplatePatientAssigned,
		Recipients: []string{clinicianID},
		Priority:   models.PriorityMedium,
	}, event.Payload)

	return err
}

func (e *Engine) notifyTaskAssignee(ctx context.Context, event events.Event) error {
	assignee, ok := event.Payload.String("assignTo")
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingRecipient, event.Type)
	}

	_, err := e.executor.Notify(ctx, models.NotificationAction{
		Channel:    models.ChannelSystem,
		Template:   models.TemplateTaskCreated,
		Recipients: []string{assignee},
		Priority:   models.PriorityMedium,
	}, event.Payload)

	return err
}
