package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

// DefinitionRepository handles definition-related database operations. The
// graph is stored denormalized as JSONB; definitions are read and written
// whole.
type DefinitionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

type rowScanner interface {
	Scan(dest ...any) error
}

const definitionColumns = `
	id
  , name
  , description
  , status
  , nodes
  , edges
  , owner
  , created_at
  , updated_at
  , archived_at
`

func (r *DefinitionRepository) List(ctx context.Context, opts persistence.ListDefinitionsOptions) ([]*models.WorkflowDefinition, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := `
		SELECT ` + definitionColumns + `
		FROM workflow_definitions
		WHERE ($1 = '' OR owner = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	status := ""
	if opts.Status != nil {
		status = string(*opts.Status)
	}

	rows, err := r.db.QueryContext(ctx, query, opts.OwnerID, status, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	definitions := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		definition, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}

		definitions = append(definitions, definition)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating definitions: %w", err)
	}

	return definitions, nil
}

func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT ` + definitionColumns + `
		FROM workflow_definitions
		WHERE id = $1
	`

	definition, err := scanDefinition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	return definition, nil
}

func (r *DefinitionRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}

	definition.UpdatedAt = now

	nodes, err := json.Marshal(definition.Nodes)
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, fmt.Errorf("failed to marshal nodes: %w", err))
	}

	edges, err := json.Marshal(definition.Edges)
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, fmt.Errorf("failed to marshal edges: %w", err))
	}

	query := `
		INSERT INTO workflow_definitions (id, name, description, status, nodes, edges, owner, created_at, updated_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , description = EXCLUDED.description
		  , status = EXCLUDED.status
		  , nodes = EXCLUDED.nodes
		  , edges = EXCLUDED.edges
		  , owner = EXCLUDED.owner
		  , updated_at = EXCLUDED.updated_at
		  , archived_at = EXCLUDED.archived_at
	`

	_, err = r.db.ExecContext(ctx, query,
		definition.ID,
		definition.Name,
		definition.Description,
		definition.Status,
		nodes,
		edges,
		definition.Owner,
		definition.CreatedAt,
		definition.UpdatedAt,
		definition.ArchivedAt,
	)
	if err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, err)
	}

	return nil
}

func (r *DefinitionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workflow_definitions WHERE id = $1`, id)
	if err != nil {
		return persistence.NewDefinitionError("Delete", id, err)
	}

	return nil
}

func scanDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		definition models.WorkflowDefinition
		nodes      []byte
		edges      []byte
		owner      sql.NullString
	)

	err := row.Scan(
		&definition.ID,
		&definition.Name,
		&definition.Description,
		&definition.Status,
		&nodes,
		&edges,
		&owner,
		&definition.CreatedAt,
		&definition.UpdatedAt,
		&definition.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}

	definition.Owner = owner.String

	if err := json.Unmarshal(nodes, &definition.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	if err := json.Unmarshal(edges, &definition.Edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	return &definition, nil
}
