package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntity indicates a status update for an entity kind the store does not manage.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownField indicates a status update for a column that may not be written.
	ErrUnknownField = errors.New("field cannot be updated")

	// ErrEntityNotFound indicates no row matched the entity reference.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrClinicianNotFound indicates an assignment referenced an unknown clinician.
	ErrClinicianNotFound = errors.New("clinician not found")

	// ErrUnknownCriteria indicates an unsupported rebalancing criteria.
	ErrUnknownCriteria = errors.New("unknown rebalancing criteria")
)

// EntityError wraps entity errors with the operation and reference that failed.
type EntityError struct {
	Op   string
	Kind string
	ID   string
	Err  error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewEntityError(op, kind, id string, err error) *EntityError {
	return &EntityError{
		Op:   op,
		Kind: kind,
		ID:   id,
		Err:  err,
	}
}

// IsEntityNotFound checks if an error indicates the referenced entity does not exist.
func IsEntityNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}
