package file

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
)

const instancesCollection = "instances"

// InstanceRepository stores workflow instances as JSON files. A process-wide
// mutex serializes updates so the optimistic version check holds.
type InstanceRepository struct {
	root string
	mu   *sync.Mutex
}

// Create stores a new instance at version 1.
func (ir *InstanceRepository) Create(_ context.Context, instance *models.WorkflowInstance) error {
	ir.mu.Lock()
	defer ir.mu.Unlock()

	instance.Version = 1

	if err := writeDocument(ir.root, instancesCollection, instance.ID, instance); err != nil {
		return persistence.NewInstanceError("Create", instance.ID, err)
	}

	return nil
}

// GetByID retrieves an instance by its ID.
func (ir *InstanceRepository) GetByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	var instance models.WorkflowInstance

	if err := readDocument(ir.root, instancesCollection, id, &instance); err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewInstanceError("GetByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, persistence.NewInstanceError("GetByID", id, err)
	}

	return &instance, nil
}

// Update persists the instance if its version still matches the stored
// record, then bumps the version.
func (ir *InstanceRepository) Update(_ context.Context, instance *models.WorkflowInstance) error {
	ir.mu.Lock()
	defer ir.mu.Unlock()

	var stored models.WorkflowInstance

	if err := readDocument(ir.root, instancesCollection, instance.ID, &stored); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewInstanceError("Update", instance.ID, persistence.ErrInstanceNotFound)
		}

		return persistence.NewInstanceError("Update", instance.ID, err)
	}

	if stored.Version != instance.Version {
		return persistence.NewInstanceError("Update", instance.ID, persistence.ErrVersionConflict)
	}

	instance.Version++

	if err := writeDocument(ir.root, instancesCollection, instance.ID, instance); err != nil {
		return persistence.NewInstanceError("Update", instance.ID, err)
	}

	return nil
}

// ListByDefinition returns all instances of a definition, newest first.
func (ir *InstanceRepository) ListByDefinition(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	instances, err := ir.scan(ctx, func(instance *models.WorkflowInstance) bool {
		return instance.DefinitionID == definitionID
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].StartedAt.After(instances[j].StartedAt)
	})

	return instances, nil
}

// CountOpen counts the definition's non-terminal instances.
func (ir *InstanceRepository) CountOpen(ctx context.Context, definitionID string) (int64, error) {
	instances, err := ir.scan(ctx, func(instance *models.WorkflowInstance) bool {
		return instance.DefinitionID == definitionID && !instance.IsTerminal()
	})
	if err != nil {
		return 0, err
	}

	return int64(len(instances)), nil
}

func (ir *InstanceRepository) scan(ctx context.Context, keep func(*models.WorkflowInstance) bool) ([]*models.WorkflowInstance, error) {
	ids, err := listIDs(ir.root, instancesCollection)
	if err != nil {
		return nil, err
	}

	instances := make([]*models.WorkflowInstance, 0, len(ids))

	for _, id := range ids {
		instance, err := ir.GetByID(ctx, id)
		if err != nil {
			if persistence.IsInstanceNotFound(err) {
				continue
			}

			return nil, err
		}

		if keep(instance) {
			instances = append(instances, instance)
		}
	}

	return instances, nil
}
