package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

// TaskRepository handles task-related database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const taskColumns = `
	id
  , instance_id
  , node_id
  , title
  , description
  , assignee
  , status
  , due_at
  , created_at
  , resolved_at
  , resolved_by
  , rejected
`

func (r *TaskRepository) Create(ctx context.Context, task *models.WorkflowTask) error {
	query := `
		INSERT INTO workflow_tasks (id, instance_id, node_id, title, description, assignee, status, due_at, created_at, resolved_at, resolved_by, rejected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.InstanceID,
		task.NodeID,
		task.Title,
		task.Description,
		task.Assignee,
		task.Status,
		task.DueAt,
		task.CreatedAt,
		task.ResolvedAt,
		task.ResolvedBy,
		task.Rejected,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}

	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM workflow_tasks
		WHERE id = $1
	`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTaskNotFound
		}

		return nil, fmt.Errorf("failed to scan task %s: %w", id, err)
	}

	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *models.WorkflowTask) error {
	query := `
		UPDATE workflow_tasks SET
			status = $2
		  , due_at = $3
		  , resolved_at = $4
		  , resolved_by = NULLIF($5, '')
		  , rejected = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Status,
		task.DueAt,
		task.ResolvedAt,
		task.ResolvedBy,
		task.Rejected,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}

	if affected == 0 {
		return persistence.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepository) List(ctx context.Context, opts persistence.ListTasksOptions) ([]*models.WorkflowTask, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := `
		SELECT ` + taskColumns + `
		FROM workflow_tasks
		WHERE ($1 = '' OR assignee = $1)
		  AND ($2 = '' OR instance_id = $2::uuid)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at ASC
		LIMIT $4 OFFSET $5
	`

	status := ""
	if opts.Status != nil {
		status = string(*opts.Status)
	}

	rows, err := r.db.QueryContext(ctx, query, opts.Assignee, opts.InstanceID, status, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	return r.collectTasks(ctx, rows)
}

func (r *TaskRepository) ListOverdue(ctx context.Context, before time.Time) ([]*models.WorkflowTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM workflow_tasks
		WHERE resolved_at IS NULL
		  AND due_at IS NOT NULL
		  AND due_at < $1
		ORDER BY due_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue tasks: %w", err)
	}

	return r.collectTasks(ctx, rows)
}

func (r *TaskRepository) collectTasks(ctx context.Context, rows *sql.Rows) ([]*models.WorkflowTask, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	tasks := make([]*models.WorkflowTask, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func scanTask(row rowScanner) (*models.WorkflowTask, error) {
	var (
		task       models.WorkflowTask
		resolvedBy sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.InstanceID,
		&task.NodeID,
		&task.Title,
		&task.Description,
		&task.Assignee,
		&task.Status,
		&task.DueAt,
		&task.CreatedAt,
		&task.ResolvedAt,
		&resolvedBy,
		&task.Rejected,
	)
	if err != nil {
		return nil, err
	}

	task.ResolvedBy = resolvedBy.String

	return &task, nil
}
