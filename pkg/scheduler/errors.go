package scheduler

import "errors"

var (
	ErrNonPositiveDelay = errors.New("delay must be positive")
	ErrStopped          = errors.New("scheduler is stopped")
	ErrNilSchedule      = errors.New("schedule is required")
)
