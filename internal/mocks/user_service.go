package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// MockUserService implements service.UserService for testing. The
// default delegates to a MockUserStore and MockTaskStore when set,
// mimicking the real cascade without a transaction.
type MockUserService struct {
	DeleteUserFn func(ctx context.Context, id uuid.UUID) error

	UserStore *MockUserStore
	TaskStore *MockTaskStore
}

var _ service.UserService = (*MockUserService)(nil)

// DeleteUser implements the service.UserService interface.
func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if m.DeleteUserFn != nil {
		return m.DeleteUserFn(ctx, id)
	}
	if m.UserStore == nil {
		return store.ErrUserNotFound
	}
	if _, err := m.UserStore.GetByID(ctx, id); err != nil {
		return err
	}
	if m.TaskStore != nil {
		if _, err := m.TaskStore.DeleteByOwner(ctx, id); err != nil {
			return err
		}
	}
	return m.UserStore.Delete(ctx, id)
}
