package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/saviser/automation/pkg/events"
	"github.com/saviser/automation/pkg/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() *Bus {
	return New(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := newTestBus()

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), events.New("no_such_type", payload.Payload{}, time.Now()))
	})
	assert.Equal(t, 0, bus.Subscribers("no_such_type"))
}

func TestBus_PublishRunsHandlersInRegistrationOrder(t *testing.T) {
	bus := newTestBus()
	calls := []string{}

	for _, name := range []string{"first", "second", "third"} {
		bus.Subscribe(events.PatientAssignedEvent, func(ctx context.Context, event events.Event) error {
			calls = append(calls, name)

			return nil
		})
	}

	bus.Publish(context.Background(), events.New(events.PatientAssignedEvent, nil, time.Now()))

	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestBus_PublishOnlyReachesMatchingType(t *testing.T) {
	bus := newTestBus()
	received := 0

	bus.Subscribe(events.TaskCreatedEvent, func(ctx context.Context, event events.Event) error {
		received++

		return nil
	})

	bus.Publish(context.Background(), events.New(events.TriageCreatedEvent, nil, time.Now()))
	assert.Equal(t, 0, received)

	bus.Publish(context.Background(), events.New(events.TaskCreatedEvent, nil, time.Now()))
	assert.Equal(t, 1, received)
}

func TestBus_FailingHandlersAreIsolated(t *testing.T) {
	bus := newTestBus()
	calls := []string{}

	bus.Subscribe(events.TriageCreatedEvent, func(ctx context.Context, event events.Event) error {
		calls = append(calls, "error")

		return errors.New("directory unavailable")
	})
	bus.Subscribe(events.TriageCreatedEvent, func(ctx context.Context, event events.Event) error {
		calls = append(calls, "panic")
		panic("boom")
	})
	bus.Subscribe(events.TriageCreatedEvent, func(ctx context.Context, event events.Event) error {
		calls = append(calls, "ok")

		return nil
	})

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), events.New(events.TriageCreatedEvent, nil, time.Now()))
	})

	assert.Equal(t, []string{"error", "panic", "ok"}, calls)
}

func TestBus_HandlerReceivesPayload(t *testing.T) {
	bus := newTestBus()

	var got events.Event

	bus.Subscribe(events.PatientAssignedEvent, func(ctx context.Context, event events.Event) error {
		got = event

		return nil
	})

	bus.Publish(context.Background(), events.New(events.PatientAssignedEvent, payload.Payload{"clinicianId": "D1"}, time.Now()))

	assert.Equal(t, events.PatientAssignedEvent, got.GetType())
	assert.Equal(t, "D1", got.Payload["clinicianId"])
}

func TestBus_HandlersMaySubscribeDuringPublish(t *testing.T) {
	bus := newTestBus()
	late := 0

	bus.Subscribe(events.TaskCreatedEvent, func(ctx context.Context, event events.Event) error {
		bus.Subscribe(events.TaskCreatedEvent, func(ctx context.Context, event events.Event) error {
			late++

			return nil
		})

		return nil
	})

	bus.Publish(context.Background(), events.New(events.TaskCreatedEvent, nil, time.Now()))
	assert.Equal(t, 0, late, "handlers added during a publish only see later publishes")

	bus.Publish(context.Background(), events.New(events.TaskCreatedEvent, nil, time.Now()))
	assert.Equal(t, 1, late)
}

func TestBus_Reset(t *testing.T) {
	bus := newTestBus()
	received := 0

	bus.Subscribe(events.TaskCreatedEvent, func(ctx context.Context, event events.Event) error {
		received++

		return nil
	})
	bus.Reset()

	bus.Publish(context.Background(), events.New(events.TaskCreatedEvent, nil, time.Now()))

	assert.Equal(t, 0, received)
	assert.Equal(t, 0, bus.Subscribers(events.TaskCreatedEvent))
}
