package engine

import "errors"

var (
	ErrMissingRecipient = errors.New("payload has no recipient")
	ErrInvalidSchedule  = errors.New("invalid tick schedule")
)
