package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. The default
// behavior keeps tasks in a map keyed by ID and enforces title
// uniqueness the way the real store does.
type MockTaskStore struct {
	CreateFn             func(ctx context.Context, task *domain.Task) error
	GetByIDFn            func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	FindByTitleFn        func(ctx context.Context, title string, excludeID uuid.UUID) (*domain.Task, error)
	ListFn               func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions) (*store.TaskPage, error)
	UpdateFn             func(ctx context.Context, task *domain.Task) error
	DeleteFn             func(ctx context.Context, id uuid.UUID) error
	DeleteByOwnerFn      func(ctx context.Context, ownerID uuid.UUID) (int64, error)
	IncrementViewCountFn func(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	Tasks map[uuid.UUID]*domain.Task
}

// NewMockTaskStore creates a mock store with initialized defaults.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Tasks: make(map[uuid.UUID]*domain.Task),
	}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create implements the TaskStore interface.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	for _, existing := range m.Tasks {
		if existing.Title == task.Title {
			return store.ErrTitleExists
		}
	}
	copied := *task
	m.Tasks[task.ID] = &copied
	return nil
}

// GetByID implements the TaskStore interface.
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	task, exists := m.Tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

// FindByTitle implements the TaskStore interface.
func (m *MockTaskStore) FindByTitle(
	ctx context.Context,
	title string,
	excludeID uuid.UUID,
) (*domain.Task, error) {
	if m.FindByTitleFn != nil {
		return m.FindByTitleFn(ctx, title, excludeID)
	}
	for _, task := range m.Tasks {
		if task.Title == title && task.ID != excludeID {
			copied := *task
			return &copied, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

// List implements the TaskStore interface. The default applies the
// filter but not sorting; tests that care about order set ListFn.
func (m *MockTaskStore) List(
	ctx context.Context,
	filter store.TaskFilter,
	opts store.PageOptions,
) (*store.TaskPage, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter, opts)
	}

	matched := make([]*domain.Task, 0, len(m.Tasks))
	for _, task := range m.Tasks {
		if !matchesFilter(task, filter) {
			continue
		}
		copied := *task
		matched = append(matched, &copied)
	}

	limit, page := opts.Normalize()
	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &store.TaskPage{
		Results:      matched[start:end],
		Page:         page,
		Limit:        limit,
		TotalPages:   (total + limit - 1) / limit,
		TotalResults: total,
	}, nil
}

// Update implements the TaskStore interface.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	if _, exists := m.Tasks[task.ID]; !exists {
		return store.ErrTaskNotFound
	}
	for _, existing := range m.Tasks {
		if existing.ID != task.ID && existing.Title == task.Title {
			return store.ErrTitleExists
		}
	}
	copied := *task
	m.Tasks[task.ID] = &copied
	return nil
}

// Delete implements the TaskStore interface.
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, exists := m.Tasks[id]; !exists {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// DeleteByOwner implements the TaskStore interface.
func (m *MockTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if m.DeleteByOwnerFn != nil {
		return m.DeleteByOwnerFn(ctx, ownerID)
	}
	var removed int64
	for id, task := range m.Tasks {
		if task.OwnerID == ownerID {
			delete(m.Tasks, id)
			removed++
		}
	}
	return removed, nil
}

// IncrementViewCount implements the TaskStore interface.
func (m *MockTaskStore) IncrementViewCount(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Task, error) {
	if m.IncrementViewCountFn != nil {
		return m.IncrementViewCountFn(ctx, id)
	}
	task, exists := m.Tasks[id]
	if !exists || task.Status != domain.TaskStatusShared {
		return nil, store.ErrTaskNotFound
	}
	task.ViewCount++
	copied := *task
	return &copied, nil
}

// WithTx implements the TaskStore interface. The mock has no real
// transactions, so it returns itself.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

func matchesFilter(task *domain.Task, filter store.TaskFilter) bool {
	if filter.Title != "" && task.Title != filter.Title {
		return false
	}
	if filter.OwnerID != uuid.Nil && task.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Status != "" && task.Status != filter.Status {
		return false
	}
	if filter.IsCompleted != nil && task.IsCompleted != *filter.IsCompleted {
		return false
	}
	for _, want := range filter.Tags {
		found := false
		for _, tag := range task.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
