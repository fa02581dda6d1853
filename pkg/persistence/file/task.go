package file

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

const tasksCollection = "tasks"

// TaskRepository stores workflow tasks as JSON files.
type TaskRepository struct {
	root string
}

// Create stores a new task.
func (tr *TaskRepository) Create(_ context.Context, task *models.WorkflowTask) error {
	return writeDocument(tr.root, tasksCollection, task.ID, task)
}

// GetByID retrieves a task by its ID.
func (tr *TaskRepository) GetByID(_ context.Context, id string) (*models.WorkflowTask, error) {
	var task models.WorkflowTask

	if err := readDocument(tr.root, tasksCollection, id, &task); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrTaskNotFound
		}

		return nil, err
	}

	return &task, nil
}

// Update replaces a stored task.
func (tr *TaskRepository) Update(ctx context.Context, task *models.WorkflowTask) error {
	if _, err := tr.GetByID(ctx, task.ID); err != nil {
		return err
	}

	return writeDocument(tr.root, tasksCollection, task.ID, task)
}

// List returns filtered tasks, oldest first so inboxes read top-down.
func (tr *TaskRepository) List(ctx context.Context, opts persistence.ListTasksOptions) ([]*models.WorkflowTask, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	tasks, err := tr.scan(ctx, func(task *models.WorkflowTask) bool {
		if opts.Assignee != "" && task.Assignee != opts.Assignee {
			return false
		}

		if opts.InstanceID != "" && task.InstanceID != opts.InstanceID {
			return false
		}

		if opts.Status != nil && task.Status != *opts.Status {
			return false
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	start := opts.Offset
	if start >= len(tasks) {
		return []*models.WorkflowTask{}, nil
	}

	end := start + opts.Limit
	if end > len(tasks) {
		end = len(tasks)
	}

	return tasks[start:end], nil
}

// ListOverdue returns unresolved tasks whose due date passed before the
// given time.
func (tr *TaskRepository) ListOverdue(ctx context.Context, before time.Time) ([]*models.WorkflowTask, error) {
	return tr.scan(ctx, func(task *models.WorkflowTask) bool {
		return task.IsOverdue(before)
	})
}

func (tr *TaskRepository) scan(ctx context.Context, keep func(*models.WorkflowTask) bool) ([]*models.WorkflowTask, error) {
	ids, err := listIDs(tr.root, tasksCollection)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.WorkflowTask, 0, len(ids))

	for _, id := range ids {
		task, err := tr.GetByID(ctx, id)
		if err != nil {
			if persistence.IsTaskNotFound(err) {
				continue
			}

			return nil, err
		}

		if keep(task) {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}
