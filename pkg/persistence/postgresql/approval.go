package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

// ApprovalRepository handles approval-related database operations.
type ApprovalRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const approvalColumns = `
	id
  , instance_id
  , task_id
  , node_id
  , title
  , approver
  , status
  , comments
  , decided_at
  , decided_by
`

func (r *ApprovalRepository) Create(ctx context.Context, approval *models.WorkflowApproval) error {
	query := `
		INSERT INTO workflow_approvals (id, instance_id, task_id, node_id, title, approver, status, comments, decided_at, decided_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
	`

	_, err := r.db.ExecContext(ctx, query,
		approval.ID,
		approval.InstanceID,
		approval.TaskID,
		approval.NodeID,
		approval.Title,
		approval.Approver,
		approval.Status,
		approval.Comments,
		approval.DecidedAt,
		approval.DecidedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert approval %s: %w", approval.ID, err)
	}

	return nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.WorkflowApproval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM workflow_approvals
		WHERE id = $1
	`

	return r.getOne(ctx, query, id)
}

func (r *ApprovalRepository) GetByTaskID(ctx context.Context, taskID string) (*models.WorkflowApproval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM workflow_approvals
		WHERE task_id = $1
	`

	return r.getOne(ctx, query, taskID)
}

func (r *ApprovalRepository) Update(ctx context.Context, approval *models.WorkflowApproval) error {
	query := `
		UPDATE workflow_approvals SET
			status = $2
		  , comments = $3
		  , decided_at = $4
		  , decided_by = NULLIF($5, '')
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		approval.ID,
		approval.Status,
		approval.Comments,
		approval.DecidedAt,
		approval.DecidedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval %s: %w", approval.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update approval %s: %w", approval.ID, err)
	}

	if affected == 0 {
		return persistence.ErrApprovalNotFound
	}

	return nil
}

func (r *ApprovalRepository) getOne(ctx context.Context, query, arg string) (*models.WorkflowApproval, error) {
	var (
		approval  models.WorkflowApproval
		decidedBy sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&approval.ID,
		&approval.InstanceID,
		&approval.TaskID,
		&approval.NodeID,
		&approval.Title,
		&approval.Approver,
		&approval.Status,
		&approval.Comments,
		&approval.DecidedAt,
		&decidedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrApprovalNotFound
		}

		return nil, fmt.Errorf("failed to scan approval: %w", err)
	}

	approval.DecidedBy = decidedBy.String

	return &approval, nil
}
