// Package scheduler runs periodic and one-shot callbacks on an injectable clock.
package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// DefaultTick is the schedule of the engine's periodic evaluation.
const DefaultTick = "@every 1m"

// ParseSchedule parses a standard cron expression or descriptor such as "@every 1m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return schedule, nil
}

// Scheduler tracks every outstanding timer so that they can be listed and cancelled together.
type Scheduler struct {
	clock   clockwork.Clock
	logger  *slog.Logger
	mu      sync.Mutex
	tasks   map[uint64]*Task
	nextID  uint64
	stopped bool
}

func New(clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Scheduler{
		clock:  clock,
		logger: logger.With("module", "scheduler"),
		tasks:  make(map[uint64]*Task),
	}
}

// Every runs fn at each activation of schedule until the task is cancelled. A panic in fn is
// logged and the task stays armed.
func (s *Scheduler) Every(name string, schedule cron.Schedule, fn func()) (*Task, error) {
	if schedule == nil {
		return nil, ErrNilSchedule
	}

	task, err := s.register(name, schedule)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	task.arm(schedule.Next(now).Sub(now), func() {
		s.fireEvery(task, schedule, fn)
	})

	return task, nil
}

// After runs fn once when delay has elapsed.
func (s *Scheduler) After(name string, delay time.Duration, fn func()) (*Task, error) {
	if delay <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonPositiveDelay, delay)
	}

	task, err := s.register(name, nil)
	if err != nil {
		return nil, err
	}

	task.arm(delay, func() {
		if !task.claim() {
			return
		}

		s.forget(task)
		s.run(task, fn)
	})

	return task, nil
}

// Pending lists outstanding tasks in creation order.
func (s *Scheduler) Pending() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })

	return out
}

// Stop cancels every outstanding task and rejects new ones until Reset.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	pending := s.Pending()
	for _, task := range pending {
		task.Cancel()
	}

	if len(pending) > 0 {
		s.logger.Info("Scheduler stopped", "cancelled", len(pending))
	}
}

// Reset accepts new tasks again after Stop.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = false
}

func (s *Scheduler) register(name string, schedule cron.Schedule) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrStopped
	}

	s.nextID++
	task := &Task{
		id:       s.nextID,
		name:     name,
		periodic: schedule != nil,
		owner:    s,
	}
	s.tasks[task.id] = task

	return task, nil
}

func (s *Scheduler) forget(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, task.id)
}

func (s *Scheduler) fireEvery(task *Task, schedule cron.Schedule, fn func()) {
	if task.Cancelled() {
		return
	}

	s.run(task, fn)

	now := s.clock.Now()
	task.arm(schedule.Next(now).Sub(now), func() {
		s.fireEvery(task, schedule, fn)
	})
}

func (s *Scheduler) run(task *Task, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled task panicked", "task", task.name, "panic", r)
		}
	}()

	fn()
}

// Task is a handle on a scheduled callback.
type Task struct {
	id       uint64
	name     string
	periodic bool
	owner    *Scheduler

	mu        sync.Mutex
	timer     clockwork.Timer
	cancelled bool
	fired     bool
}

func (t *Task) Name() string   { return t.name }
func (t *Task) Periodic() bool { return t.periodic }

func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancelled
}

// Cancel stops the task. It is safe to call more than once and after the task fired.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.cancelled = true

	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()

	t.owner.forget(t)
}

func (t *Task) arm(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled {
		return
	}

	t.timer = t.owner.clock.AfterFunc(delay, fn)
}

// claim marks a one-shot task as fired unless it was cancelled first.
func (t *Task) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelled || t.fired {
		return false
	}

	t.fired = true

	return true
}
