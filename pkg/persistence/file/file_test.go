package file

import (
	"testing"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/cascadehq/cascade/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) persistence.Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func createTestInstance(t *testing.T, store persistence.Persistence, definitionID string) *models.WorkflowInstance {
	t.Helper()

	instance := &models.WorkflowInstance{
		ID:            uuid.New().String(),
		DefinitionID:  definitionID,
		Status:        models.InstanceStatusInProgress,
		CurrentNodeID: "start",
		Context:       map[string]any{"amount": 100.0},
		StartedBy:     "alice@example.com",
		StartedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.InstanceRepository().Create(t.Context(), instance))

	return instance
}

func saveTestDefinition(t *testing.T, store persistence.Persistence, id string, status models.DefinitionStatus) *models.WorkflowDefinition {
	t.Helper()

	definition := testutil.LinearDefinition(nil)
	definition.ID = id
	definition.Status = status
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	return definition
}

func TestDefinitionRepository_SaveAndGet(t *testing.T) {
	store := newTestStore(t)

	definition := saveTestDefinition(t, store, "def-1", models.DefinitionStatusDraft)

	loaded, err := store.DefinitionRepository().GetByID(t.Context(), "def-1")
	require.NoError(t, err)
	assert.Equal(t, definition.Name, loaded.Name)
	assert.Len(t, loaded.Nodes, len(definition.Nodes))
}

func TestDefinitionRepository_GetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.DefinitionRepository().GetByID(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsDefinitionNotFound(err))
}

func TestDefinitionRepository_List_FiltersByStatus(t *testing.T) {
	store := newTestStore(t)

	saveTestDefinition(t, store, "def-draft", models.DefinitionStatusDraft)
	saveTestDefinition(t, store, "def-active", models.DefinitionStatusActive)

	status := models.DefinitionStatusActive
	definitions, err := store.DefinitionRepository().List(t.Context(), persistence.ListDefinitionsOptions{Status: &status})
	require.NoError(t, err)
	require.Len(t, definitions, 1)
	assert.Equal(t, "def-active", definitions[0].ID)
}

func TestDefinitionRepository_Delete(t *testing.T) {
	store := newTestStore(t)

	saveTestDefinition(t, store, "def-1", models.DefinitionStatusDraft)
	require.NoError(t, store.DefinitionRepository().Delete(t.Context(), "def-1"))

	_, err := store.DefinitionRepository().GetByID(t.Context(), "def-1")
	assert.True(t, persistence.IsDefinitionNotFound(err))
}

func TestInstanceRepository_Create_SetsVersion(t *testing.T) {
	store := newTestStore(t)

	instance := createTestInstance(t, store, "def-1")
	assert.Equal(t, int64(1), instance.Version)

	loaded, err := store.InstanceRepository().GetByID(t.Context(), instance.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
}

func TestInstanceRepository_Update_BumpsVersion(t *testing.T) {
	store := newTestStore(t)

	instance := createTestInstance(t, store, "def-1")

	instance.CurrentNodeID = "review"
	require.NoError(t, store.InstanceRepository().Update(t.Context(), instance))
	assert.Equal(t, int64(2), instance.Version)

	loaded, err := store.InstanceRepository().GetByID(t.Context(), instance.ID)
	require.NoError(t, err)
	assert.Equal(t, "review", loaded.CurrentNodeID)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestInstanceRepository_Update_VersionConflict(t *testing.T) {
	store := newTestStore(t)

	instance := createTestInstance(t, store, "def-1")

	// Two readers load version 1; the second write must lose.
	stale, err := store.InstanceRepository().GetByID(t.Context(), instance.ID)
	require.NoError(t, err)

	instance.CurrentNodeID = "review"
	require.NoError(t, store.InstanceRepository().Update(t.Context(), instance))

	stale.CurrentNodeID = "rework"
	err = store.InstanceRepository().Update(t.Context(), stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrVersionConflict)
}

func TestInstanceRepository_Update_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.InstanceRepository().Update(t.Context(), &models.WorkflowInstance{
		ID:      uuid.New().String(),
		Version: 1,
	})
	require.Error(t, err)
	assert.True(t, persistence.IsInstanceNotFound(err))
}

func TestInstanceRepository_CountOpen(t *testing.T) {
	store := newTestStore(t)

	createTestInstance(t, store, "def-1")

	done := createTestInstance(t, store, "def-1")
	done.Complete(time.Now().UTC())
	require.NoError(t, store.InstanceRepository().Update(t.Context(), done))

	createTestInstance(t, store, "def-other")

	count, err := store.InstanceRepository().CountOpen(t.Context(), "def-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTaskRepository_List_FiltersByAssignee(t *testing.T) {
	store := newTestStore(t)

	for i, assignee := range []string{"alice@example.com", "bob@example.com"} {
		task := &models.WorkflowTask{
			ID:         uuid.New().String(),
			InstanceID: "inst-1",
			NodeID:     "review",
			Title:      "Review",
			Assignee:   assignee,
			Status:     models.TaskStatusPending,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.TaskRepository().Create(t.Context(), task))
	}

	tasks, err := store.TaskRepository().List(t.Context(), persistence.ListTasksOptions{Assignee: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "alice@example.com", tasks[0].Assignee)
}

func TestTaskRepository_ListOverdue(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	overdue := &models.WorkflowTask{
		ID:         uuid.New().String(),
		InstanceID: "inst-1",
		NodeID:     "review",
		Title:      "Review",
		Assignee:   "alice@example.com",
		Status:     models.TaskStatusPending,
		DueAt:      &past,
		CreatedAt:  past,
	}
	require.NoError(t, store.TaskRepository().Create(t.Context(), overdue))

	notDue := &models.WorkflowTask{
		ID:         uuid.New().String(),
		InstanceID: "inst-1",
		NodeID:     "approve",
		Title:      "Approve",
		Assignee:   "bob@example.com",
		Status:     models.TaskStatusPending,
		DueAt:      &future,
		CreatedAt:  past,
	}
	require.NoError(t, store.TaskRepository().Create(t.Context(), notDue))

	tasks, err := store.TaskRepository().ListOverdue(t.Context(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, overdue.ID, tasks[0].ID)
}

func TestApprovalRepository_GetByTaskID(t *testing.T) {
	store := newTestStore(t)

	approval := &models.WorkflowApproval{
		ID:         uuid.New().String(),
		InstanceID: "inst-1",
		TaskID:     "task-1",
		NodeID:     "approve",
		Title:      "Approve expense",
		Approver:   "carol@example.com",
		Status:     models.ApprovalStatusPending,
	}
	require.NoError(t, store.ApprovalRepository().Create(t.Context(), approval))

	loaded, err := store.ApprovalRepository().GetByTaskID(t.Context(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, approval.ID, loaded.ID)

	_, err = store.ApprovalRepository().GetByTaskID(t.Context(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrApprovalNotFound)
}
