// Package actions performs the side effects of automation rules.
package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/otelhelper"
	"github.com/saviser/automation/pkg/payload"
	"github.com/saviser/automation/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Defaults applied to automatic assignments when the triggering payload has no value.
const (
	DefaultAssignmentReason   = "Consulta automática"
	DefaultAssignmentPriority = "media"
	AutomaticAssignmentNotes  = "Asignación automática por sistema"
)

// Emitter receives the events produced by actions so they go through rule evaluation and
// subscribers like any other event.
type Emitter interface {
	Emit(ctx context.Context, eventType events.EventType, p payload.Payload)
}

type Executor struct {
	deps    protocol.Dependencies
	emitter Emitter
	clock   clockwork.Clock
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewExecutor(deps protocol.Dependencies, emitter Emitter, clock clockwork.Clock, tracer trace.Tracer) *Executor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	if tracer == nil {
		tracer = otelhelper.Noop()
	}

	return &Executor{
		deps:    deps,
		emitter: emitter,
		clock:   clock,
		tracer:  tracer,
		logger:  logger.With("module", "action_executor"),
	}
}

// Execute runs one action of rule. Failures and panics stay inside this call: they are logged
// and recorded on the span.
func (e *Executor) Execute(ctx context.Context, rule *models.Rule, action models.Action, p payload.Payload) {
	kind := models.ActionKind("unknown")
	if action != nil {
		kind = action.Kind()
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "action.execute",
		attribute.String(otelhelper.RuleIDKey, rule.ID),
		attribute.String(otelhelper.ActionKindKey, string(kind)),
	)
	defer span.End()

	logger := e.logger.With("rule_id", rule.ID, "action", kind)

	defer func() {
		if r := recover(); r != nil {
			err := &ActionError{RuleID: rule.ID, Kind: kind, Err: fmt.Errorf("%w: %v", ErrActionPanic, r)}
			logger.Error("Action panicked", "error", err)
			otelhelper.SetError(span, err, attribute.String(otelhelper.RuleIDKey, rule.ID))
		}
	}()

	if err := e.run(ctx, logger, action, p); err != nil {
		err = &ActionError{RuleID: rule.ID, Kind: kind, Err: err}
		logger.Error("Action failed", "error", err)
		otelhelper.SetError(span, err, attribute.String(otelhelper.RuleIDKey, rule.ID))

		return
	}

	logger.Debug("Action executed")
}

func (e *Executor) run(ctx context.Context, logger *slog.Logger, action models.Action, p payload.Payload) error {
	switch a := action.(type) {
	case models.NotificationAction:
		_, err := e.Notify(ctx, a, p)

		return err
	case models.AutoAssignAction:
		return e.autoAssign(ctx, logger, a, p)
	case models.UpdateStatusAction:
		return e.updateStatus(ctx, a, p)
	case models.CreateTaskAction:
		e.createTask(ctx, a, p)

		return nil
	case models.RedistributeAction:
		return e.redistribute(ctx, a)
	default:
		return fmt.Errorf("%w: %T", models.ErrUnknownActionKind, action)
	}
}

// Notify builds a notification and hands it to the configured channel. Templates are resolved by
// the receiver.
func (e *Executor) Notify(ctx context.Context, a models.NotificationAction, p payload.Payload) (models.Notification, error) {
	notification := models.Notification{
		ID:         uuid.NewString(),
		Channel:    a.Channel,
		Template:   a.Template,
		Recipients: append([]string(nil), a.Recipients...),
		Priority:   a.Priority,
		Payload:    p.Clone(),
		CreatedAt:  e.clock.Now(),
	}

	if e.deps.Notifications == nil {
		return notification, fmt.Errorf("notifications: %w", ErrCollaboratorMissing)
	}

	if err := e.deps.Notifications.Deliver(ctx, notification); err != nil {
		return notification, fmt.Errorf("failed to deliver %s notification %s: %w", notification.Channel, notification.Template, err)
	}

	notification.Delivered = true

	e.logger.Info("Notification sent",
		"notification_id", notification.ID,
		"channel", notification.Channel,
		"template", notification.Template,
		"priority", notification.Priority)

	return notification, nil
}

func (e *Executor) autoAssign(ctx context.Context, logger *slog.Logger, a models.AutoAssignAction, p payload.Payload) error {
	if e.deps.Directory == nil || e.deps.Assignments == nil {
		return fmt.Errorf("directory and assignments: %w", ErrCollaboratorMissing)
	}

	roster, err := e.deps.Directory.ListActiveClinicians(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active clinicians: %w", err)
	}

	if len(roster) == 0 {
		logger.Warn("No clinicians available for automatic assignment")

		return nil
	}

	patientID, ok := entityID(p, "pacienteId")
	if !ok {
		return ErrMissingPatientID
	}

	selected := selectClinician(roster, a.Criteria)

	req := protocol.AssignmentRequest{
		PatientID:   patientID,
		ClinicianID: selected.ID,
		Reason:      stringOr(p, "sintomas", DefaultAssignmentReason),
		Priority:    stringOr(p, "prioridad", DefaultAssignmentPriority),
		Notes:       AutomaticAssignmentNotes,
	}

	assignmentID, err := e.deps.Assignments.CreateAssignment(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create assignment for patient %s: %w", patientID, err)
	}

	logger.Info("Patient assigned automatically",
		"assignment_id", assignmentID,
		"patient_id", patientID,
		"clinician_id", selected.ID,
		"criteria", a.Criteria)

	e.emit(ctx, events.PatientAssignedEvent, payload.Payload{
		"assignmentId": assignmentID,
		"patientId":    req.PatientID,
		"clinicianId":  req.ClinicianID,
		"reason":       req.Reason,
		"priority":     req.Priority,
		"notes":        req.Notes,
		"doctor": map[string]any{
			"id":                selected.ID,
			"assigned_patients": selected.ActiveAssignmentCount + 1,
		},
	})

	return nil
}

// selectClinician picks from a non-empty roster. Unknown criteria fall back to the first entry.
func selectClinician(roster []protocol.ClinicianSummary, criteria string) protocol.ClinicianSummary {
	if criteria != models.CriteriaLeastBusy {
		return roster[0]
	}

	selected := roster[0]
	for _, c := range roster[1:] {
		if c.ActiveAssignmentCount < selected.ActiveAssignmentCount {
			selected = c
		}
	}

	return selected
}

func (e *Executor) updateStatus(ctx context.Context, a models.UpdateStatusAction, p payload.Payload) error {
	if e.deps.Status == nil {
		return fmt.Errorf("status updater: %w", ErrCollaboratorMissing)
	}

	id, ok := entityID(p, a.Entity+".id")
	if !ok {
		id, ok = entityID(p, "id")
	}

	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingEntityID, a.Entity)
	}

	ref := protocol.EntityRef{Kind: a.Entity, ID: id}
	if err := e.deps.Status.SetField(ctx, ref, a.Field, a.Value); err != nil {
		return fmt.Errorf("failed to set %s.%s on %s: %w", a.Entity, a.Field, id, err)
	}

	return nil
}

func (e *Executor) createTask(ctx context.Context, a models.CreateTaskAction, p payload.Payload) {
	task := models.Task{
		ID:        uuid.NewString(),
		AssignTo:  a.AssignTo,
		Task:      a.Task,
		Payload:   p.Clone(),
		Status:    models.TaskStatusPending,
		CreatedAt: e.clock.Now(),
	}

	e.logger.Info("Task created", "task_id", task.ID, "task", task.Task, "assign_to", task.AssignTo)

	e.emit(ctx, events.TaskCreatedEvent, task.AsPayload())
}

func (e *Executor) redistribute(ctx context.Context, a models.RedistributeAction) error {
	if e.deps.Directory == nil || e.deps.Rebalancer == nil {
		return fmt.Errorf("directory and rebalancer: %w", ErrCollaboratorMissing)
	}

	roster, err := e.deps.Directory.ListActiveClinicians(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active clinicians: %w", err)
	}

	result, err := e.deps.Rebalancer.Rebalance(ctx, a.Criteria, roster)
	if err != nil {
		return fmt.Errorf("failed to rebalance with %s: %w", a.Criteria, err)
	}

	moves := make([]any, 0, len(result.Moves))
	for _, m := range result.Moves {
		moves = append(moves, map[string]any{
			"assignmentId": m.AssignmentID,
			"from":         m.From,
			"to":           m.To,
		})
	}

	e.emit(ctx, events.WorkloadBalancedEvent, payload.Payload{
		"criteria": result.Criteria,
		"moved":    result.Moved,
		"moves":    moves,
	})

	return nil
}

func (e *Executor) emit(ctx context.Context, eventType events.EventType, p payload.Payload) {
	if e.emitter == nil {
		return
	}

	e.emitter.Emit(ctx, eventType, p)
}

// entityID accepts non-empty strings and numbers, since record ids arrive either way.
func entityID(p payload.Payload, path string) (string, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return "", false
	}

	switch id := v.(type) {
	case string:
		return id, id != ""
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(id), true
	case float64:
		return fmt.Sprintf("%.0f", id), id == float64(int64(id))
	default:
		return "", false
	}
}

func stringOr(p payload.Payload, path, fallback string) string {
	if s, ok := p.String(path); ok {
		return s
	}

	return fallback
}
