// Package persistence provides the data storage abstraction the workflow
// engine runs against. Implementations live in subpackages; the engine
// itself holds no state between calls.
package persistence

import (
	"context"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
)

// Persistence is the store the engine and services are wired with.
type Persistence interface {
	DefinitionRepository() DefinitionRepository
	InstanceRepository() InstanceRepository
	TaskRepository() TaskRepository
	ApprovalRepository() ApprovalRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListDefinitionsOptions filters and pages a definition listing.
type ListDefinitionsOptions struct {
	Limit   int
	Offset  int
	OwnerID string
	Status  *models.DefinitionStatus
}

// DefinitionRepository stores workflow definitions.
type DefinitionRepository interface {
	List(ctx context.Context, opts ListDefinitionsOptions) ([]*models.WorkflowDefinition, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	Save(ctx context.Context, definition *models.WorkflowDefinition) error
	Delete(ctx context.Context, id string) error
}

// InstanceRepository stores workflow instances. Update must apply the
// optimistic version check atomically: it matches the instance's current
// persisted version, increments it, and fails with ErrVersionConflict when
// another writer got there first.
type InstanceRepository interface {
	Create(ctx context.Context, instance *models.WorkflowInstance) error
	GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	Update(ctx context.Context, instance *models.WorkflowInstance) error
	ListByDefinition(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error)
	CountOpen(ctx context.Context, definitionID string) (int64, error)
}

// ListTasksOptions filters a task listing, the shape behind the task inbox.
type ListTasksOptions struct {
	Assignee   string
	InstanceID string
	Status     *models.TaskStatus
	Limit      int
	Offset     int
}

// TaskRepository stores workflow tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *models.WorkflowTask) error
	GetByID(ctx context.Context, id string) (*models.WorkflowTask, error)
	Update(ctx context.Context, task *models.WorkflowTask) error
	List(ctx context.Context, opts ListTasksOptions) ([]*models.WorkflowTask, error)
	ListOverdue(ctx context.Context, before time.Time) ([]*models.WorkflowTask, error)
}

// ApprovalRepository stores approval records, one per approval task.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *models.WorkflowApproval) error
	GetByID(ctx context.Context, id string) (*models.WorkflowApproval, error)
	GetByTaskID(ctx context.Context, taskID string) (*models.WorkflowApproval, error)
	Update(ctx context.Context, approval *models.WorkflowApproval) error
}
