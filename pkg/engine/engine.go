// Package engine turns domain events and clock ticks into rule executions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/saviser/automation/pkg/actions"
	"github.com/saviser/automation/pkg/condition"
	"github.com/saviser/automation/pkg/eventbus"
	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/otelhelper"
	"github.com/saviser/automation/pkg/payload"
	"github.com/saviser/automation/pkg/protocol"
	"github.com/saviser/automation/pkg/registry"
	"github.com/saviser/automation/pkg/scheduler"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FollowUpDelay separates a completed consultation from its follow-up event.
const FollowUpDelay = 7 * 24 * time.Hour

type dispatchKey struct{}

type queuedDispatch struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// Engine owns the rule registry, the event bus and the scheduler. Ticks, events and deferred
// callbacks never overlap. Calls made with a context received from a running handler or action
// are handled inline; any other call arriving while a dispatch runs is queued and handled by the
// running dispatcher before it returns.
type Engine struct {
	deps      protocol.Dependencies
	registry  *registry.Registry
	bus       *eventbus.Bus
	scheduler *scheduler.Scheduler
	evaluator *condition.Evaluator
	executor  *actions.Executor
	clock     clockwork.Clock
	tracer    trace.Tracer
	tick      cron.Schedule
	logger    *slog.Logger

	dispatchMu sync.Mutex
	runs       uint64
	current    uint64 // id of the running drain, 0 when idle; handler contexts carry it
	pending    []queuedDispatch

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(deps protocol.Dependencies, opts ...Option) (*Engine, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	e := &Engine{
		deps:   deps,
		clock:  clockwork.NewRealClock(),
		tracer: otelhelper.Noop(),
		logger: deps.Logger.With("module", "automation_engine"),
		ctx:    context.Background(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.tick == nil {
		schedule, err := scheduler.ParseSchedule(scheduler.DefaultTick)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}

		e.tick = schedule
	}

	e.registry = registry.NewRegistry(deps.Logger)
	e.bus = eventbus.New(deps.Logger)
	e.scheduler = scheduler.New(e.clock, deps.Logger)
	e.evaluator = condition.NewEvaluator(e.clock)
	e.executor = actions.NewExecutor(deps, emitter{e}, e.clock, e.tracer)

	for _, rule := range registry.DefaultRules() {
		if err := e.registry.Register(rule); err != nil {
			return nil, fmt.Errorf("failed to register default rule %s: %w", rule.ID, err)
		}
	}

	return e, nil
}

// Start installs the built-in subscriptions and arms the periodic tick. Calling it again while
// running does nothing.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	e.scheduler.Reset()
	e.installBuiltins()

	if _, err := e.scheduler.Every("time_rules", e.tick, func() { e.Tick(e.runContext()) }); err != nil {
		e.cancel()
		e.bus.Reset()

		return fmt.Errorf("failed to arm tick: %w", err)
	}

	e.started = true
	e.logger.Info("Automation engine started", "rules", len(e.registry.Rules()))

	return nil
}

// Stop cancels every periodic and deferred timer and drops all subscribers.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}

	e.scheduler.Stop()
	e.bus.Reset()
	e.cancel()

	e.started = false
	e.ctx = context.Background()
	e.logger.Info("Automation engine stopped")
}

// TriggerEvent evaluates the active event rules bound to eventType against p, then delivers the
// event to subscribers. When another dispatch is in progress the event is queued behind it and
// TriggerEvent returns before the event has been handled.
func (e *Engine) TriggerEvent(ctx context.Context, eventType events.EventType, p payload.Payload) {
	e.serialize(ctx, func(ctx context.Context) {
		e.dispatch(ctx, events.New(eventType, p, e.clock.Now()))
	})
}

func (e *Engine) OnTriageCreated(ctx context.Context, p payload.Payload) {
	e.TriggerEvent(ctx, events.TriageCreatedEvent, p)
}

func (e *Engine) OnConsultationCompleted(ctx context.Context, p payload.Payload) {
	e.TriggerEvent(ctx, events.ConsultationCompletedEvent, p)
}

func (e *Engine) OnPatientAssigned(ctx context.Context, p payload.Payload) {
	e.TriggerEvent(ctx, events.PatientAssignedEvent, p)
}

// Subscribe registers handler for eventType. Handlers run after the matching event rules. A handler
// that triggers further events with the ctx it received has them dispatched inline; triggering
// with any other context queues the event until the current dispatch completes.
func (e *Engine) Subscribe(eventType events.EventType, handler eventbus.EventHandler) {
	e.bus.Subscribe(eventType, handler)
}

// Tick runs one evaluation pass of the time rules.
func (e *Engine) Tick(ctx context.Context) {
	e.serialize(ctx, e.evaluateTimeRules)
}

// ScheduleReminder publishes appointment_reminder for appointmentID at the given instant.
func (e *Engine) ScheduleReminder(appointmentID string, at time.Time) (*scheduler.Task, error) {
	delay := at.Sub(e.clock.Now())

	task, err := e.scheduler.After("appointment_reminder:"+appointmentID, delay, func() {
		e.TriggerEvent(e.runContext(), events.AppointmentReminderEvent, payload.Payload{"appointmentId": appointmentID})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reminder for appointment %s: %w", appointmentID, err)
	}

	e.logger.Info("Appointment reminder scheduled", "appointment_id", appointmentID, "at", at)

	return task, nil
}

// ScheduleAfter runs fn once after delay under the dispatch lock. Errors and panics are logged.
func (e *Engine) ScheduleAfter(name string, delay time.Duration, fn func(ctx context.Context) error) (*scheduler.Task, error) {
	return e.scheduler.After(name, delay, func() {
		e.serialize(e.runContext(), func(ctx context.Context) {
			if err := fn(ctx); err != nil {
				e.logger.Error("Deferred task failed", "task", name, "error", err)
			}
		})
	})
}

// Pending lists outstanding timers, including the periodic tick.
func (e *Engine) Pending() []*scheduler.Task {
	return e.scheduler.Pending()
}

// ToggleRule enables or disables a rule. Unknown ids are ignored.
func (e *Engine) ToggleRule(id string, active bool) bool {
	return e.registry.Toggle(id, active)
}

// AddRule validates and appends a rule. Ids are not checked for collisions.
func (e *Engine) AddRule(rule *models.Rule) error {
	return e.registry.Register(rule)
}

func (e *Engine) Rules() []*models.Rule {
	return e.registry.Rules()
}

func (e *Engine) GetStats() models.Stats {
	return e.registry.Stats(e.clock.Now())
}

func (e *Engine) serialize(ctx context.Context, fn func(ctx context.Context)) {
	e.dispatchMu.Lock()

	if run, ok := ctx.Value(dispatchKey{}).(uint64); ok && run == e.current {
		e.dispatchMu.Unlock()
		fn(ctx)

		return
	}

	if e.current != 0 {
		e.pending = append(e.pending, queuedDispatch{ctx: ctx, fn: fn})
		e.dispatchMu.Unlock()

		return
	}

	e.runs++
	run := e.runs
	e.current = run
	e.dispatchMu.Unlock()

	drained := false

	defer func() {
		if drained {
			return
		}

		e.dispatchMu.Lock()
		e.current = 0
		e.pending = nil
		e.dispatchMu.Unlock()
	}()

	next := queuedDispatch{ctx: ctx, fn: fn}

	for {
		next.fn(context.WithValue(next.ctx, dispatchKey{}, run))

		e.dispatchMu.Lock()

		if len(e.pending) == 0 {
			e.current = 0
			drained = true
			e.dispatchMu.Unlock()

			return
		}

		next = e.pending[0]
		e.pending = e.pending[1:]
		e.dispatchMu.Unlock()
	}
}

func (e *Engine) dispatch(ctx context.Context, event events.Event) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "event.dispatch",
		attribute.String(otelhelper.EventTypeKey, string(event.Type)),
	)
	defer span.End()

	for _, rule := range e.registry.Active(models.TriggerEvent) {
		if !rule.ListensTo(string(event.Type)) || !e.stillActive(rule.ID) {
			continue
		}

		if e.evaluator.Evaluate(rule.Conditions, event.Payload) {
			e.runRule(ctx, rule, event.Payload)
		}
	}

	e.bus.Publish(ctx, event)
}

func (e *Engine) evaluateTimeRules(ctx context.Context) {
	now := e.clock.Now()

	records := []payload.Payload{{}}

	if e.deps.Snapshots != nil {
		snapshot, err := e.deps.Snapshots.Snapshot(ctx, now)
		if err != nil {
			e.logger.Error("Failed to load snapshot, skipping tick", "error", err)

			return
		}

		records = snapshot
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "tick",
		attribute.Int(otelhelper.RecordsKey, len(records)),
	)
	defer span.End()

	for _, rule := range e.registry.Active(models.TriggerTime) {
		for _, record := range records {
			if !e.stillActive(rule.ID) {
				break
			}

			if e.evaluator.Evaluate(rule.Conditions, record) {
				e.runRule(ctx, rule, record)
			}
		}
	}
}

func (e *Engine) runRule(ctx context.Context, rule *models.Rule, p payload.Payload) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "rule.execute",
		attribute.String(otelhelper.RuleIDKey, rule.ID),
		attribute.String(otelhelper.RuleTriggerKey, string(rule.Trigger)),
	)
	defer span.End()

	e.logger.Info("Executing rule", "rule_id", rule.ID, "name", rule.Name)

	for _, action := range rule.Actions {
		e.executor.Execute(ctx, rule, action, p)
	}

	e.registry.MarkExecuted(rule.ID, e.clock.Now())
}

// stillActive re-reads the registry so that a rule disabled by an earlier action is skipped.
func (e *Engine) stillActive(id string) bool {
	rule, err := e.registry.Rule(id)

	return err == nil && rule.Active
}

func (e *Engine) runContext() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ctx
}

// emitter feeds events produced by actions back into dispatch.
type emitter struct {
	e *Engine
}

func (em emitter) Emit(ctx context.Context, eventType events.EventType, p payload.Payload) {
	em.e.TriggerEvent(ctx, eventType, p)
}
