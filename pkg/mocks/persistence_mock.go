package mocks

import (
	"context"
	"time"

	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockDefinitionRepository is a mock implementation of persistence.DefinitionRepository interface.
type MockDefinitionRepository struct {
	mock.Mock
}

func (m *MockDefinitionRepository) List(ctx context.Context, opts persistence.ListDefinitionsOptions) ([]*models.WorkflowDefinition, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowDefinition), args.Error(1)
}

func (m *MockDefinitionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowDefinition), args.Error(1)
}

func (m *MockDefinitionRepository) Save(ctx context.Context, definition *models.WorkflowDefinition) error {
	args := m.Called(ctx, definition)

	return args.Error(0)
}

func (m *MockDefinitionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockInstanceRepository is a mock implementation of persistence.InstanceRepository interface.
type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Create(ctx context.Context, instance *models.WorkflowInstance) error {
	args := m.Called(ctx, instance)

	return args.Error(0)
}

func (m *MockInstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceRepository) Update(ctx context.Context, instance *models.WorkflowInstance) error {
	args := m.Called(ctx, instance)

	return args.Error(0)
}

func (m *MockInstanceRepository) ListByDefinition(ctx context.Context, definitionID string) ([]*models.WorkflowInstance, error) {
	args := m.Called(ctx, definitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceRepository) CountOpen(ctx context.Context, definitionID string) (int64, error) {
	args := m.Called(ctx, definitionID)

	return args.Get(0).(int64), args.Error(1)
}

// MockTaskRepository is a mock implementation of persistence.TaskRepository interface.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.WorkflowTask) error {
	args := m.Called(ctx, task)

	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowTask), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *models.WorkflowTask) error {
	args := m.Called(ctx, task)

	return args.Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context, opts persistence.ListTasksOptions) ([]*models.WorkflowTask, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowTask), args.Error(1)
}

func (m *MockTaskRepository) ListOverdue(ctx context.Context, before time.Time) ([]*models.WorkflowTask, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowTask), args.Error(1)
}

// MockApprovalRepository is a mock implementation of persistence.ApprovalRepository interface.
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Create(ctx context.Context, approval *models.WorkflowApproval) error {
	args := m.Called(ctx, approval)

	return args.Error(0)
}

func (m *MockApprovalRepository) GetByID(ctx context.Context, id string) (*models.WorkflowApproval, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowApproval), args.Error(1)
}

func (m *MockApprovalRepository) GetByTaskID(ctx context.Context, taskID string) (*models.WorkflowApproval, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowApproval), args.Error(1)
}

func (m *MockApprovalRepository) Update(ctx context.Context, approval *models.WorkflowApproval) error {
	args := m.Called(ctx, approval)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	definitionRepo *MockDefinitionRepository
	instanceRepo   *MockInstanceRepository
	taskRepo       *MockTaskRepository
	approvalRepo   *MockApprovalRepository
}

// NewMockPersistence creates a new MockPersistence with all mock repositories.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		definitionRepo: &MockDefinitionRepository{},
		instanceRepo:   &MockInstanceRepository{},
		taskRepo:       &MockTaskRepository{},
		approvalRepo:   &MockApprovalRepository{},
	}
}

// GetMockDefinitionRepository returns the underlying mock definition repository for setting up expectations.
func (m *MockPersistence) GetMockDefinitionRepository() *MockDefinitionRepository {
	return m.definitionRepo
}

// GetMockInstanceRepository returns the underlying mock instance repository for setting up expectations.
func (m *MockPersistence) GetMockInstanceRepository() *MockInstanceRepository {
	return m.instanceRepo
}

// GetMockTaskRepository returns the underlying mock task repository for setting up expectations.
func (m *MockPersistence) GetMockTaskRepository() *MockTaskRepository {
	return m.taskRepo
}

// GetMockApprovalRepository returns the underlying mock approval repository for setting up expectations.
func (m *MockPersistence) GetMockApprovalRepository() *MockApprovalRepository {
	return m.approvalRepo
}

func (m *MockPersistence) DefinitionRepository() persistence.DefinitionRepository {
	return m.definitionRepo
}

func (m *MockPersistence) InstanceRepository() persistence.InstanceRepository {
	return m.instanceRepo
}

func (m *MockPersistence) TaskRepository() persistence.TaskRepository {
	return m.taskRepo
}

func (m *MockPersistence) ApprovalRepository() persistence.ApprovalRepository {
	return m.approvalRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
