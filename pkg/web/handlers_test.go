package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/cascadehq/cascade/pkg/engine"
	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/cascadehq/cascade/pkg/persistence/file"
	"github.com/cascadehq/cascade/pkg/registry"
	"github.com/cascadehq/cascade/pkg/services"
	"github.com/cascadehq/cascade/pkg/testutil"
	"github.com/cascadehq/cascade/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	logger := slog.Default()

	registryInstance := registry.NewRegistry(logger)
	registryInstance.RegisterDefaultHandlers()

	executor := engine.NewExecutor(logger, store, registryInstance, nil)

	handlers := web.NewAPIHandlers(
		services.NewDefinition(store, registryInstance),
		services.NewInstance(store),
		services.NewTask(store),
		executor,
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
	)

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)

	d := app.Group("/definitions")
	d.Get("/", handlers.GetDefinitions)
	d.Post("/", handlers.CreateDefinition)
	d.Get("/:id", handlers.GetDefinition)
	d.Patch("/:id", handlers.UpdateDefinition)
	d.Delete("/:id", handlers.DeleteDefinition)
	d.Post("/:id/activate", handlers.ActivateDefinition)
	d.Post("/:id/archive", handlers.ArchiveDefinition)
	d.Post("/:id/instances", handlers.StartInstance)
	d.Get("/:id/instances", handlers.GetInstances)

	i := app.Group("/instances")
	i.Get("/:id", handlers.GetInstance)
	i.Post("/:id/cancel", handlers.CancelInstance)

	ts := app.Group("/tasks")
	ts.Get("/", handlers.GetTasks)
	ts.Get("/:id", handlers.GetTask)
	ts.Post("/:id/resolve", handlers.ResolveTask)

	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, data
}

func TestCreateDefinition(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/definitions/", web.CreateDefinitionRequest{
		Name:        "Expense approval",
		Description: "Approve expense reports",
		Owner:       "finance",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var definition models.WorkflowDefinition

	require.NoError(t, json.Unmarshal(body, &definition))
	assert.NotEmpty(t, definition.ID)
	assert.Equal(t, models.DefinitionStatusDraft, definition.Status)
	assert.Equal(t, "finance", definition.Owner)
}

func TestCreateDefinition_MissingName(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/definitions/", web.CreateDefinitionRequest{
		Owner: "finance",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDefinition_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/definitions/missing", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActivateDefinition_InvalidGraph(t *testing.T) {
	app, store := setupTestApp(t)

	definition := testutil.CreateTestDefinition()
	definition.Nodes = []*models.Node{
		testutil.Node("start", models.NodeTypeStart),
		testutil.Node("work", models.NodeTypeTask),
	}
	definition.Edges = []*models.Edge{
		testutil.Edge("e1", "start", "work"),
	}
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	resp, body := doJSON(t, app, http.MethodPost, "/definitions/"+definition.ID+"/activate", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "no_end")
}

func TestStartAndResolveFlow(t *testing.T) {
	app, store := setupTestApp(t)

	definition := testutil.LinearDefinition(map[string]any{
		models.ParamAssignee: "alice",
	})
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	resp, body := doJSON(t, app, http.MethodPost, "/definitions/"+definition.ID+"/instances", web.StartInstanceRequest{
		StartedBy: "bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var instance models.WorkflowInstance

	require.NoError(t, json.Unmarshal(body, &instance))
	assert.Equal(t, models.InstanceStatusInProgress, instance.Status)
	require.NotEmpty(t, instance.CurrentTaskID)

	// The task shows up in alice's inbox.
	resp, body = doJSON(t, app, http.MethodGet, "/tasks/?assignee=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), instance.CurrentTaskID)

	// Resolving the task completes the instance.
	resp, body = doJSON(t, app, http.MethodPost, "/tasks/"+instance.CurrentTaskID+"/resolve", web.ResolveTaskRequest{
		Outcome:    "completed",
		ResolvedBy: "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resolved models.WorkflowInstance

	require.NoError(t, json.Unmarshal(body, &resolved))
	assert.Equal(t, models.InstanceStatusCompleted, resolved.Status)

	// A second resolution conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/tasks/"+instance.CurrentTaskID+"/resolve", web.ResolveTaskRequest{
		Outcome:    "completed",
		ResolvedBy: "alice",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartInstance_DraftDefinition(t *testing.T) {
	app, store := setupTestApp(t)

	definition := testutil.LinearDefinition(nil)
	definition.Status = models.DefinitionStatusDraft
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	resp, _ := doJSON(t, app, http.MethodPost, "/definitions/"+definition.ID+"/instances", web.StartInstanceRequest{
		StartedBy: "bob",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCancelInstance(t *testing.T) {
	app, store := setupTestApp(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	resp, body := doJSON(t, app, http.MethodPost, "/definitions/"+definition.ID+"/instances", web.StartInstanceRequest{
		StartedBy: "bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var instance models.WorkflowInstance

	require.NoError(t, json.Unmarshal(body, &instance))

	resp, body = doJSON(t, app, http.MethodPost, "/instances/"+instance.ID+"/cancel", web.CancelInstanceRequest{
		CancelledBy: "admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cancelled models.WorkflowInstance

	require.NoError(t, json.Unmarshal(body, &cancelled))
	assert.Equal(t, models.InstanceStatusCancelled, cancelled.Status)
}

func TestDeleteDefinition_WithInstancesConflicts(t *testing.T) {
	app, store := setupTestApp(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	resp, _ := doJSON(t, app, http.MethodPost, "/definitions/"+definition.ID+"/instances", web.StartInstanceRequest{
		StartedBy: "bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/definitions/"+definition.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestArchiveThenUpdateConflicts(t *testing.T) {
	app, store := setupTestApp(t)

	definition := testutil.LinearDefinition(nil)
	require.NoError(t, store.DefinitionRepository().Save(t.Context(), definition))

	resp, _ := doJSON(t, app, http.MethodPost, "/definitions/"+definition.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	name := "Renamed definition"

	resp, _ = doJSON(t, app, http.MethodPatch, "/definitions/"+definition.ID, web.UpdateDefinitionRequest{
		Name: &name,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}
