package file

import (
	"context"
	"os"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

const approvalsCollection = "approvals"

// ApprovalRepository stores approval records as JSON files.
type ApprovalRepository struct {
	root string
}

// Create stores a new approval record.
func (ar *ApprovalRepository) Create(_ context.Context, approval *models.WorkflowApproval) error {
	return writeDocument(ar.root, approvalsCollection, approval.ID, approval)
}

// GetByID retrieves an approval by its ID.
func (ar *ApprovalRepository) GetByID(_ context.Context, id string) (*models.WorkflowApproval, error) {
	var approval models.WorkflowApproval

	if err := readDocument(ar.root, approvalsCollection, id, &approval); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrApprovalNotFound
		}

		return nil, err
	}

	return &approval, nil
}

// GetByTaskID finds the approval attached to a task, if any.
func (ar *ApprovalRepository) GetByTaskID(ctx context.Context, taskID string) (*models.WorkflowApproval, error) {
	ids, err := listIDs(ar.root, approvalsCollection)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		approval, err := ar.GetByID(ctx, id)
		if err != nil {
			if persistence.IsApprovalNotFound(err) {
				continue
			}

			return nil, err
		}

		if approval.TaskID == taskID {
			return approval, nil
		}
	}

	return nil, persistence.ErrApprovalNotFound
}

// Update replaces a stored approval.
func (ar *ApprovalRepository) Update(ctx context.Context, approval *models.WorkflowApproval) error {
	if _, err := ar.GetByID(ctx, approval.ID); err != nil {
		return err
	}

	return writeDocument(ar.root, approvalsCollection, approval.ID, approval)
}
