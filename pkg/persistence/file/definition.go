package file

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

const definitionsCollection = "definitions"

// DefinitionRepository stores workflow definitions as JSON files.
type DefinitionRepository struct {
	root string
}

// List returns filtered definitions, newest first.
func (dr *DefinitionRepository) List(ctx context.Context, opts persistence.ListDefinitionsOptions) ([]*models.WorkflowDefinition, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	ids, err := listIDs(dr.root, definitionsCollection)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.WorkflowDefinition, 0, len(ids))

	for _, id := range ids {
		definition, err := dr.GetByID(ctx, id)
		if err != nil {
			if persistence.IsDefinitionNotFound(err) {
				continue
			}

			return nil, err
		}

		if opts.OwnerID != "" && definition.Owner != opts.OwnerID {
			continue
		}

		if opts.Status != nil && definition.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, definition)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start >= len(filtered) {
		return []*models.WorkflowDefinition{}, nil
	}

	end := start + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

// GetByID retrieves a definition by its ID.
func (dr *DefinitionRepository) GetByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	var definition models.WorkflowDefinition

	if err := readDocument(dr.root, definitionsCollection, id, &definition); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewDefinitionError("GetByID", id, persistence.ErrDefinitionNotFound)
		}

		return nil, persistence.NewDefinitionError("GetByID", id, err)
	}

	return &definition, nil
}

// Save creates or replaces a definition and maintains its timestamps.
func (dr *DefinitionRepository) Save(_ context.Context, definition *models.WorkflowDefinition) error {
	now := time.Now().UTC()
	if definition.CreatedAt.IsZero() {
		definition.CreatedAt = now
	}

	definition.UpdatedAt = now

	if err := writeDocument(dr.root, definitionsCollection, definition.ID, definition); err != nil {
		return persistence.NewDefinitionError("Save", definition.ID, err)
	}

	return nil
}

// Delete removes a definition. Deleting a missing definition is a no-op.
func (dr *DefinitionRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(path.Join(dr.root, definitionsCollection, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewDefinitionError("Delete", id, fmt.Errorf("failed to delete file: %w", err))
	}

	return nil
}
