package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

// InstanceRepository handles instance-related database operations. The
// optimistic version check rides on the UPDATE's WHERE clause, so
// concurrent engine passes cannot both win.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const instanceColumns = `
	id
  , definition_id
  , status
  , current_node_id
  , current_task_id
  , context
  , started_by
  , started_at
  , completed_at
  , version
`

func (r *InstanceRepository) Create(ctx context.Context, instance *models.WorkflowInstance) error {
	instance.Version = 1

	contextJSON, err := marshalContext(instance.Context)
	if err != nil {
		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	query := `
		INSERT INTO workflow_instances (id, definition_id, status, current_node_id, current_task_id, context, started_by, started_at, completed_at, version)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		instance.ID,
		instance.DefinitionID,
		instance.Status,
		instance.CurrentNodeID,
		instance.CurrentTaskID,
		contextJSON,
		instance.StartedBy,
		instance.StartedAt,
		instance.CompletedAt,
		instance.Version,
	)
	if err != nil {
		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	return nil
}

func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM workflow_instances
		WHERE id = $1
	`

	instance, err := scanInstance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return instance, nil
}

func (r *InstanceRepository) Update(ctx context.Context, instance *models.WorkflowInstance) error {
	contextJSON, err := marshalContext(instance.Context)
	if err != nil {
		return persistence.NewInstanceError("Update", instance.ID, err)
	}

	query := `
		UPDATE workflow_instances SET
			status = $2
		  , current_node_id = $3
		  , current_task_id = NULLIF($4, '')::uuid
		  , context = $5
		  , completed_at = $6
		  , version = version + 1
		WHERE id = $1 AND version = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.Status,
		instance.CurrentNodeID,
		instance.CurrentTaskID,
		contextJSON,
		instance.CompletedAt,
		instance.Version,
	)
	if err != nil {
		return persistence.NewInstanceError("Update", instance.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewInstanceError("Update", instance.ID, err)
	}

	if affected == 0 {
		// Either the instance is gone or another writer bumped the version.
		if _, err := r.GetByID(ctx, instance.ID); err != nil {
			return err
		}

		return persistence.NewInstanceError("Update", instance.ID, persistence.ErrVersionConflict)
	}

	instance.Version++

	return nil
}

func (r *InstanceRepository) ListByDefinition(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM workflow_instances
		WHERE definition_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.WorkflowInstance, 0)

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instances: %w", err)
	}

	return instances, nil
}

func (r *InstanceRepository) CountOpen(ctx context.Context, definitionID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM workflow_instances
		WHERE definition_id = $1
		  AND status IN ('pending', 'in_progress')
	`

	var count int64

	if err := r.db.QueryRowContext(ctx, query, definitionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open instances: %w", err)
	}

	return count, nil
}

func scanInstance(row rowScanner) (*models.WorkflowInstance, error) {
	var (
		instance      models.WorkflowInstance
		currentNodeID sql.NullString
		currentTaskID sql.NullString
		contextJSON   []byte
	)

	err := row.Scan(
		&instance.ID,
		&instance.DefinitionID,
		&instance.Status,
		&currentNodeID,
		&currentTaskID,
		&contextJSON,
		&instance.StartedBy,
		&instance.StartedAt,
		&instance.CompletedAt,
		&instance.Version,
	)
	if err != nil {
		return nil, err
	}

	instance.CurrentNodeID = currentNodeID.String
	instance.CurrentTaskID = currentTaskID.String

	if err := json.Unmarshal(contextJSON, &instance.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}

	return &instance, nil
}

func marshalContext(values map[string]any) ([]byte, error) {
	if values == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context: %w", err)
	}

	return data, nil
}
