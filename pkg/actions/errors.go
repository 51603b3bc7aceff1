package actions

import (
	"errors"
	"fmt"

	"github.com/saviser/automation/pkg/models"
)

var (
	ErrCollaboratorMissing = errors.New("collaborator not configured")
	ErrMissingEntityID     = errors.New("payload has no entity id")
	ErrMissingPatientID    = errors.New("payload has no patient id")
	ErrActionPanic         = errors.New("action panicked")
)

// ActionError ties a failure to the rule and action that produced it.
type ActionError struct {
	RuleID string
	Kind   models.ActionKind
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s: %s action failed: %v", e.RuleID, e.Kind, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
