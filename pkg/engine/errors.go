// Package engine provides standardized error types for execution operations.
package engine

import (
	"errors"
	"fmt"

	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/cascadehq/cascade/pkg/validation"
)

var (
	// ErrDefinitionNotActive indicates an instance start was attempted on a
	// definition that is not in status active.
	ErrDefinitionNotActive = errors.New("definition is not active")

	// ErrTaskAlreadyResolved indicates a second resolution of the same
	// task. The instance state is unchanged; the first resolution won.
	ErrTaskAlreadyResolved = errors.New("task already resolved")

	// ErrTaskSuperseded indicates the task no longer belongs to the
	// instance's current node entry.
	ErrTaskSuperseded = errors.New("task superseded by later execution")

	// ErrInstanceClosed indicates an operation on a terminal instance.
	ErrInstanceClosed = errors.New("instance already reached a terminal status")

	// ErrInvalidOutcome indicates an outcome that does not fit the task
	// kind: approval tasks accept approved/rejected, plain tasks accept
	// completed/skipped.
	ErrInvalidOutcome = errors.New("outcome not valid for this task")
)

// InvalidDefinitionError wraps the validation failure that blocked a start.
type InvalidDefinitionError struct {
	DefinitionID string
	Err          error
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("definition %s cannot run: %v", e.DefinitionID, e.Err)
}

func (e *InvalidDefinitionError) Unwrap() error {
	return e.Err
}

// IsInvalidDefinition checks whether err blocked a start because of the
// definition itself (validation failure or wrong status).
func IsInvalidDefinition(err error) bool {
	var invalidErr *InvalidDefinitionError
	if errors.As(err, &invalidErr) {
		return true
	}

	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return true
	}

	return errors.Is(err, ErrDefinitionNotActive)
}

// IsConflict checks whether err is recoverable by reloading and retrying:
// double resolutions, stale tasks, optimistic-lock losses.
func IsConflict(err error) bool {
	return errors.Is(err, ErrTaskAlreadyResolved) ||
		errors.Is(err, ErrTaskSuperseded) ||
		errors.Is(err, ErrInstanceClosed) ||
		persistence.IsVersionConflict(err)
}
