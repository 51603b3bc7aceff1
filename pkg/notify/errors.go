package notify

import "errors"

var (
	ErrNoSender     = errors.New("no sender for notification channel")
	ErrNoRecipients = errors.New("notification has no recipients")
	ErrNilPublisher = errors.New("publisher is required")
)
