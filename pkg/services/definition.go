package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/cascadehq/cascade/pkg/registry"
	"github.com/cascadehq/cascade/pkg/validation"
	"github.com/google/uuid"
)

// ErrDefinitionNotFound is returned when a definition is not found.
var ErrDefinitionNotFound = persistence.ErrDefinitionNotFound

// Definition manages the authoring lifecycle of workflow definitions:
// drafts are freely editable, activation gates on validation, archived
// definitions are read-only history.
type Definition struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewDefinition creates a new definition service.
func NewDefinition(persistence persistence.Persistence, handlerRegistry *registry.Registry) *Definition {
	return &Definition{
		persistence: persistence,
		registry:    handlerRegistry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Definition) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListDefinitionsRequest contains options for listing definitions.
type ListDefinitionsRequest struct {
	Limit   int
	Offset  int
	OwnerID string
	Status  *models.DefinitionStatus
}

// List retrieves definitions with filtering and pagination.
func (s *Definition) List(ctx context.Context, req ListDefinitionsRequest) ([]*models.WorkflowDefinition, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.Status != nil {
		switch *req.Status {
		case models.DefinitionStatusDraft, models.DefinitionStatusActive, models.DefinitionStatusArchived:
		default:
			return nil, NewValidationError(
				"List",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status %q", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	definitions, err := s.persistence.DefinitionRepository().List(ctx, persistence.ListDefinitionsOptions{
		Limit:   req.Limit,
		Offset:  req.Offset,
		OwnerID: req.OwnerID,
		Status:  req.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	return definitions, nil
}

// Get retrieves a definition by ID.
func (s *Definition) Get(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return s.persistence.DefinitionRepository().GetByID(ctx, id)
}

// Create stores a new draft definition. Drafts are not validated as
// graphs; authors save incomplete work all the time.
func (s *Definition) Create(ctx context.Context, definition *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if definition == nil {
		return nil, ErrDefinitionNil
	}

	if definition.Name == "" {
		return nil, ErrNameRequired
	}

	if err := validateNodeTypes(definition); err != nil {
		return nil, err
	}

	if definition.ID == "" {
		definition.ID = uuid.New().String()
	}

	definition.Status = models.DefinitionStatusDraft

	if err := s.persistence.DefinitionRepository().Save(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to save definition: %w", err)
	}

	return definition, nil
}

// Update replaces a draft definition's content. Active and archived
// definitions are immutable.
func (s *Definition) Update(ctx context.Context, definition *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if definition == nil {
		return nil, ErrDefinitionNil
	}

	if definition.Name == "" {
		return nil, ErrNameRequired
	}

	existing, err := s.persistence.DefinitionRepository().GetByID(ctx, definition.ID)
	if err != nil {
		return nil, err
	}

	switch existing.Status {
	case models.DefinitionStatusActive:
		return nil, ErrCannotModifyActive
	case models.DefinitionStatusArchived:
		return nil, ErrCannotModifyArchived
	case models.DefinitionStatusDraft:
	}

	if err := validateNodeTypes(definition); err != nil {
		return nil, err
	}

	definition.Status = models.DefinitionStatusDraft
	definition.CreatedAt = existing.CreatedAt

	if err := s.persistence.DefinitionRepository().Save(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to update definition %s: %w", definition.ID, err)
	}

	return definition, nil
}

// Activate validates the draft's graph and automation configs, then makes
// it executable. Validation errors come back as *validation.Error values.
func (s *Definition) Activate(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	definition, err := s.persistence.DefinitionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if definition.Status != models.DefinitionStatusDraft {
		return nil, ErrNotActivatable
	}

	if len(definition.Nodes) == 0 {
		return nil, ErrNodesRequired
	}

	if err := validation.Validate(definition); err != nil {
		return nil, err
	}

	if err := s.validateAutomationConfigs(definition); err != nil {
		return nil, err
	}

	definition.Status = models.DefinitionStatusActive

	if err := s.persistence.DefinitionRepository().Save(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to activate definition %s: %w", id, err)
	}

	return definition, nil
}

// Archive retires an active definition. Running instances keep going; new
// starts are refused.
func (s *Definition) Archive(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	definition, err := s.persistence.DefinitionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if definition.Status != models.DefinitionStatusActive {
		return nil, ErrNotArchivable
	}

	now := time.Now().UTC()
	definition.Status = models.DefinitionStatusArchived
	definition.ArchivedAt = &now

	if err := s.persistence.DefinitionRepository().Save(ctx, definition); err != nil {
		return nil, fmt.Errorf("failed to archive definition %s: %w", id, err)
	}

	return definition, nil
}

// Delete removes a definition that no instance references.
func (s *Definition) Delete(ctx context.Context, id string) error {
	if _, err := s.persistence.DefinitionRepository().GetByID(ctx, id); err != nil {
		return err
	}

	instances, err := s.persistence.InstanceRepository().ListByDefinition(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check instances of definition %s: %w", id, err)
	}

	if len(instances) > 0 {
		return persistence.NewDefinitionError("Delete", id, persistence.ErrDefinitionHasInstances)
	}

	return s.persistence.DefinitionRepository().Delete(ctx, id)
}

// validateAutomationConfigs checks every automation node's handler exists
// and its config satisfies the handler's schema.
func (s *Definition) validateAutomationConfigs(definition *models.WorkflowDefinition) error {
	if s.registry == nil {
		return nil
	}

	for _, node := range definition.Nodes {
		if node.Type != models.NodeTypeAutomation {
			continue
		}

		handlerType, ok := node.StringParam(models.ParamHandler)
		if !ok {
			return NewValidationError(
				"Activate",
				"MISSING_HANDLER",
				fmt.Sprintf("automation node %q does not declare a handler", node.ID),
				ErrUnknownHandlerType,
			)
		}

		if !s.registry.IsHandlerRegistered(handlerType) {
			return NewValidationError(
				"Activate",
				"UNKNOWN_HANDLER",
				fmt.Sprintf("automation node %q uses unregistered handler %q", node.ID, handlerType),
				ErrUnknownHandlerType,
			)
		}

		config, _ := node.Params[models.ParamConfig].(map[string]any)
		if err := s.registry.ValidateConfig(handlerType, config); err != nil {
			return NewValidationError(
				"Activate",
				"INVALID_HANDLER_CONFIG",
				err.Error(),
				ErrInvalidRequest,
			)
		}
	}

	return nil
}

func validateNodeTypes(definition *models.WorkflowDefinition) error {
	for _, node := range definition.Nodes {
		if !models.ValidNodeType(node.Type) {
			return NewValidationError(
				"validateNodeTypes",
				"UNKNOWN_NODE_TYPE",
				fmt.Sprintf("node %q has unknown type %q", node.ID, node.Type),
				ErrUnknownNodeType,
			)
		}
	}

	return nil
}
