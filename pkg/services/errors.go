// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidStatus      = errors.New("invalid definition status")
	ErrDefinitionNil      = errors.New("definition cannot be nil")
	ErrNameRequired       = errors.New("definition name is required")
	ErrNodesRequired      = errors.New("definition must have at least one node")
	ErrEmptyOwnerID       = errors.New("owner ID cannot be empty")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrUnknownHandlerType = errors.New("unknown automation handler")

	// Business Logic Conflicts (409 Conflict).
	ErrCannotModifyActive   = errors.New("cannot modify an active definition, archive it first")
	ErrCannotModifyArchived = errors.New("cannot modify an archived definition")
	ErrNotActivatable       = errors.New("only draft definitions can be activated")
	ErrNotArchivable        = errors.New("only active definitions can be archived")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrDefinitionNil) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrUnknownHandlerType)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCannotModifyActive) ||
		errors.Is(err, ErrCannotModifyArchived) ||
		errors.Is(err, ErrNotActivatable) ||
		errors.Is(err, ErrNotArchivable)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
