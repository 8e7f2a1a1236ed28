package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// MockTaskService implements service.TaskService for testing the HTTP
// layer without real stores.
type MockTaskService struct {
	CreateTaskFn         func(ctx context.Context, ownerID uuid.UUID, title, description string, tags []string) (*domain.Task, error)
	QueryTasksFn         func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions) (*store.TaskPage, error)
	QueryMyTasksFn       func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions, callerID uuid.UUID) (*store.TaskPage, error)
	GetTaskFn            func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateTaskFn         func(ctx context.Context, id uuid.UUID, update *domain.TaskUpdate, callerID uuid.UUID) (*domain.Task, error)
	DeleteTaskFn         func(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error
	IncrementViewCountFn func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

var _ service.TaskService = (*MockTaskService)(nil)

// CreateTask implements the service.TaskService interface.
func (m *MockTaskService) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	title, description string,
	tags []string,
) (*domain.Task, error) {
	return m.CreateTaskFn(ctx, ownerID, title, description, tags)
}

// QueryTasks implements the service.TaskService interface.
func (m *MockTaskService) QueryTasks(
	ctx context.Context,
	filter store.TaskFilter,
	opts store.PageOptions,
) (*store.TaskPage, error) {
	return m.QueryTasksFn(ctx, filter, opts)
}

// QueryMyTasks implements the service.TaskService interface.
func (m *MockTaskService) QueryMyTasks(
	ctx context.Context,
	filter store.TaskFilter,
	opts store.PageOptions,
	callerID uuid.UUID,
) (*store.TaskPage, error) {
	return m.QueryMyTasksFn(ctx, filter, opts, callerID)
}

// GetTask implements the service.TaskService interface.
func (m *MockTaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.GetTaskFn(ctx, id)
}

// UpdateTask implements the service.TaskService interface.
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	id uuid.UUID,
	update *domain.TaskUpdate,
	callerID uuid.UUID,
) (*domain.Task, error) {
	return m.UpdateTaskFn(ctx, id, update, callerID)
}

// DeleteTask implements the service.TaskService interface.
func (m *MockTaskService) DeleteTask(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	return m.DeleteTaskFn(ctx, id, callerID)
}

// IncrementViewCount implements the service.TaskService interface.
func (m *MockTaskService) IncrementViewCount(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Task, error) {
	return m.IncrementViewCountFn(ctx, id)
}
