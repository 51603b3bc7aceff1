package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

func newTestScheduler() (*Scheduler, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(start)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return New(clock, logger), clock
}

func waitForTimers(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, clock.BlockUntilContext(ctx, n))
}

func TestParseSchedule(t *testing.T) {
	schedule, err := ParseSchedule(DefaultTick)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), schedule.Next(start))

	schedule, err = ParseSchedule("0 8 * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC), schedule.Next(start))

	_, err = ParseSchedule("every minute")
	assert.Error(t, err)
}

func TestScheduler_EveryFiresOnEachActivation(t *testing.T) {
	s, clock := newTestScheduler()
	schedule, err := ParseSchedule(DefaultTick)
	require.NoError(t, err)

	var ticks atomic.Int32

	task, err := s.Every("tick", schedule, func() { ticks.Add(1) })
	require.NoError(t, err)
	assert.True(t, task.Periodic())

	for want := int32(1); want <= 3; want++ {
		waitForTimers(t, clock, 1)
		clock.Advance(time.Minute)

		assert.Eventually(t, func() bool { return ticks.Load() == want }, time.Second, 5*time.Millisecond)
	}

	assert.Len(t, s.Pending(), 1)
}

func TestScheduler_EverySurvivesPanics(t *testing.T) {
	s, clock := newTestScheduler()
	schedule, err := ParseSchedule(DefaultTick)
	require.NoError(t, err)

	var calls atomic.Int32

	_, err = s.Every("tick", schedule, func() {
		calls.Add(1)
		panic("snapshot source exploded")
	})
	require.NoError(t, err)

	waitForTimers(t, clock, 1)
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	waitForTimers(t, clock, 1)
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_EveryRequiresSchedule(t *testing.T) {
	s, _ := newTestScheduler()

	_, err := s.Every("tick", nil, func() {})
	assert.ErrorIs(t, err, ErrNilSchedule)
}

func TestScheduler_AfterFiresOnce(t *testing.T) {
	s, clock := newTestScheduler()

	var calls atomic.Int32

	task, err := s.After("follow-up", 7*24*time.Hour, func() { calls.Add(1) })
	require.NoError(t, err)
	assert.False(t, task.Periodic())
	assert.Equal(t, "follow-up", task.Name())
	assert.Len(t, s.Pending(), 1)

	clock.Advance(7*24*time.Hour - time.Second)
	assert.Never(t, func() bool { return calls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(s.Pending()) == 0 }, time.Second, 5*time.Millisecond)

	clock.Advance(7 * 24 * time.Hour)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestScheduler_AfterRejectsNonPositiveDelay(t *testing.T) {
	s, clock := newTestScheduler()

	for _, delay := range []time.Duration{0, -time.Minute} {
		var called atomic.Bool

		_, err := s.After("reminder", delay, func() { called.Store(true) })
		require.ErrorIs(t, err, ErrNonPositiveDelay)

		clock.Advance(time.Hour)
		assert.Never(t, called.Load, 20*time.Millisecond, 5*time.Millisecond)
	}

	assert.Empty(t, s.Pending())
}

func TestScheduler_AfterRecoversPanics(t *testing.T) {
	s, clock := newTestScheduler()

	var after atomic.Bool

	_, err := s.After("bad", time.Minute, func() { panic("boom") })
	require.NoError(t, err)
	_, err = s.After("good", 2*time.Minute, func() { after.Store(true) })
	require.NoError(t, err)

	clock.Advance(time.Minute)
	clock.Advance(time.Minute)

	assert.Eventually(t, after.Load, time.Second, 5*time.Millisecond)
}

func TestScheduler_CancelPreventsFiring(t *testing.T) {
	s, clock := newTestScheduler()

	var called atomic.Bool

	task, err := s.After("reminder", time.Hour, func() { called.Store(true) })
	require.NoError(t, err)

	task.Cancel()
	task.Cancel()

	assert.True(t, task.Cancelled())
	assert.Empty(t, s.Pending())

	clock.Advance(2 * time.Hour)
	assert.Never(t, called.Load, 50*time.Millisecond, 5*time.Millisecond)
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	s, clock := newTestScheduler()
	schedule, err := ParseSchedule(DefaultTick)
	require.NoError(t, err)

	var calls atomic.Int32

	_, err = s.Every("tick", schedule, func() { calls.Add(1) })
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err = s.After("deferred", time.Duration(i)*time.Hour, func() { calls.Add(1) })
		require.NoError(t, err)
	}

	pending := s.Pending()
	require.Len(t, pending, 4)
	assert.Equal(t, "tick", pending[0].Name())

	s.Stop()

	assert.Empty(t, s.Pending())
	for _, task := range pending {
		assert.True(t, task.Cancelled())
	}

	clock.Advance(24 * time.Hour)
	assert.Never(t, func() bool { return calls.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	_, err = s.After("late", time.Minute, func() {})
	require.ErrorIs(t, err, ErrStopped)

	s.Reset()

	_, err = s.After("late", time.Minute, func() {})
	assert.NoError(t, err)
}
