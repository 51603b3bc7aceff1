package engine

import (
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Engine)

// WithClock replaces the real clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithTickSchedule sets when time rules are evaluated. Defaults to every minute.
func WithTickSchedule(schedule cron.Schedule) Option {
	return func(e *Engine) {
		e.tick = schedule
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}
