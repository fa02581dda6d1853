package services

import (
	"context"
	"fmt"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

// ErrInstanceNotFound is returned when an instance is not found.
var ErrInstanceNotFound = persistence.ErrInstanceNotFound

// Instance answers read queries about workflow instances. All mutation
// goes through the engine.
type Instance struct {
	persistence persistence.Persistence
}

// NewInstance creates a new instance query service.
func NewInstance(persistence persistence.Persistence) *Instance {
	return &Instance{persistence: persistence}
}

// Get retrieves an instance by ID.
func (s *Instance) Get(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return s.persistence.InstanceRepository().GetByID(ctx, id)
}

// ListByDefinition returns all instances started from a definition.
func (s *Instance) ListByDefinition(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	if _, err := s.persistence.DefinitionRepository().GetByID(ctx, definitionID); err != nil {
		return nil, err
	}

	instances, err := s.persistence.InstanceRepository().ListByDefinition(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of definition %s: %w", definitionID, err)
	}

	return instances, nil
}

// CountOpen counts the definition's non-terminal instances.
func (s *Instance) CountOpen(ctx context.Context, definitionID string) (int64, error) {
	return s.persistence.InstanceRepository().CountOpen(ctx, definitionID)
}
