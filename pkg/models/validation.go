package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidRule       = errors.New("invalid rule")
	ErrUnknownActionKind = errors.New("unknown action kind")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the rule and the required configuration of every action.
func (r *Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidRule, r.ID, err)
	}

	for i, action := range r.Actions {
		if action == nil {
			return fmt.Errorf("%w %q: action %d is nil", ErrInvalidRule, r.ID, i)
		}

		if err := validate.Struct(action); err != nil {
			return fmt.Errorf("%w %q: action %d (%s): %w", ErrInvalidRule, r.ID, i, action.Kind(), err)
		}
	}

	return nil
}
