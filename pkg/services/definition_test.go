package services

import (
	"log/slog"
	"testing"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/cascadehq/cascade/pkg/persistence/file"
	"github.com/cascadehq/cascade/pkg/registry"
	"github.com/cascadehq/cascade/pkg/testutil"
	"github.com/cascadehq/cascade/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefinitionService(t *testing.T) (*Definition, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	handlerRegistry := registry.NewRegistry(slog.Default())
	handlerRegistry.RegisterDefaultHandlers()

	return NewDefinition(store, handlerRegistry), store
}

func TestDefinition_Create(t *testing.T) {
	service, _ := newDefinitionService(t)

	created, err := service.Create(t.Context(), &models.WorkflowDefinition{
		Name:  "Expense approval",
		Owner: "finance",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.DefinitionStatusDraft, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
}

func TestDefinition_Create_RequiresName(t *testing.T) {
	service, _ := newDefinitionService(t)

	_, err := service.Create(t.Context(), &models.WorkflowDefinition{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestDefinition_Create_RejectsUnknownNodeType(t *testing.T) {
	service, _ := newDefinitionService(t)

	_, err := service.Create(t.Context(), &models.WorkflowDefinition{
		Name: "Broken",
		Nodes: []*models.Node{
			{ID: "n1", Type: "teleport"},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
	assert.True(t, IsValidationError(err))
}

func TestDefinition_Update_DraftOnly(t *testing.T) {
	service, store := newDefinitionService(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	definition.Name = "Renamed"

	_, err := service.Update(t.Context(), definition)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCannotModifyActive)
	assert.True(t, IsConflictError(err))
}

func TestDefinition_Activate(t *testing.T) {
	service, _ := newDefinitionService(t)

	definition := testutil.LinearDefinition(nil)
	definition.Status = models.DefinitionStatusDraft

	created, err := service.Create(t.Context(), definition)
	require.NoError(t, err)

	activated, err := service.Activate(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefinitionStatusActive, activated.Status)
}

func TestDefinition_Activate_FailsValidation(t *testing.T) {
	service, _ := newDefinitionService(t)

	definition := testutil.CreateTestDefinition()
	definition.Nodes = []*models.Node{
		testutil.Node("start", models.NodeTypeStart),
		testutil.Node("work", models.NodeTypeTask),
	}
	definition.Edges = []*models.Edge{
		testutil.Edge("e1", "start", "work"),
	}

	created, err := service.Create(t.Context(), definition)
	require.NoError(t, err)

	_, err = service.Activate(t.Context(), created.ID)
	require.Error(t, err)

	var validationErr *validation.Error

	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, validation.CategoryNoEnd, validationErr.Category)
}

func TestDefinition_Activate_ChecksHandlerConfig(t *testing.T) {
	service, _ := newDefinitionService(t)

	definition := testutil.CreateTestDefinition()
	definition.Nodes = []*models.Node{
		testutil.Node("start", models.NodeTypeStart),
		testutil.CreateTestNode(
			testutil.WithID("notify"),
			testutil.WithType(models.NodeTypeAutomation),
			testutil.WithParams(map[string]any{
				models.ParamHandler: "log",
				// Missing the required "message" config key.
				models.ParamConfig: map[string]any{},
			}),
		),
		testutil.Node("end", models.NodeTypeEnd),
	}
	definition.Edges = []*models.Edge{
		testutil.Edge("e1", "start", "notify"),
		testutil.Edge("e2", "notify", "end"),
	}

	created, err := service.Create(t.Context(), definition)
	require.NoError(t, err)

	_, err = service.Activate(t.Context(), created.ID)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDefinition_Activate_DraftOnly(t *testing.T) {
	service, store := newDefinitionService(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	_, err := service.Activate(t.Context(), definition.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotActivatable)
}

func TestDefinition_Archive(t *testing.T) {
	service, store := newDefinitionService(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	archived, err := service.Archive(t.Context(), definition.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefinitionStatusArchived, archived.Status)
	require.NotNil(t, archived.ArchivedAt)

	// Archiving twice conflicts.
	_, err = service.Archive(t.Context(), definition.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotArchivable)
}

func TestDefinition_Delete_GuardsInstances(t *testing.T) {
	service, store := newDefinitionService(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	instance := &models.WorkflowInstance{
		ID:           "i1",
		DefinitionID: definition.ID,
		Status:       models.InstanceStatusInProgress,
	}
	require.NoError(t, store.InstanceRepository().Create(t.Context(), instance))

	err := service.Delete(t.Context(), definition.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrDefinitionHasInstances)
}

func TestDefinition_Delete(t *testing.T) {
	service, _ := newDefinitionService(t)

	created, err := service.Create(t.Context(), &models.WorkflowDefinition{Name: "Ephemeral"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.Get(t.Context(), created.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsDefinitionNotFound(err))
}

func TestDefinition_List_FiltersByStatus(t *testing.T) {
	service, store := newDefinitionService(t)

	draft := testutil.LinearDefinition(nil)
	draft.Status = models.DefinitionStatusDraft
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), draft))

	active := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), active))

	status := models.DefinitionStatusActive

	definitions, err := service.List(t.Context(), ListDefinitionsRequest{Status: &status})
	require.NoError(t, err)
	require.Len(t, definitions, 1)
	assert.Equal(t, active.ID, definitions[0].ID)
}
