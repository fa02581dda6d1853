package services

import (
	"context"
	"fmt"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

// ErrTaskNotFound is returned when a task is not found.
var ErrTaskNotFound = persistence.ErrTaskNotFound

// Task answers read queries about workflow tasks, the shape behind the
// per-assignee inbox.
type Task struct {
	persistence persistence.Persistence
}

// NewTask creates a new task query service.
func NewTask(persistence persistence.Persistence) *Task {
	return &Task{persistence: persistence}
}

// ListTasksRequest contains options for listing tasks.
type ListTasksRequest struct {
	Assignee   string
	InstanceID string
	Status     *models.TaskStatus
	Limit      int
	Offset     int
}

// List retrieves tasks with filtering and pagination.
func (s *Task) List(ctx context.Context, req ListTasksRequest) ([]*models.WorkflowTask, error) {
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
		case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted, models.TaskStatusSkipped:
		default:
			return nil, NewValidationError(
				"List",
				"INVALID_STATUS",
				fmt.Sprintf("invalid task status %q", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	tasks, err := s.persistence.TaskRepository().List(ctx, persistence.ListTasksOptions{
		Assignee:   req.Assignee,
		InstanceID: req.InstanceID,
		Status:     req.Status,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// Get retrieves a task by ID.
func (s *Task) Get(ctx context.Context, id string) (*models.WorkflowTask, error) {
	return s.persistence.TaskRepository().GetByID(ctx, id)
}
