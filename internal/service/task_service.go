package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/events"
	"github.com/taskhive/taskhive-api/internal/store"
)

// TaskService orchestrates the task lifecycle: creation, queries,
// partial updates, deletion, and the view-count side effect. It is the
// single place that enforces title uniqueness and ownership; the HTTP
// layer above it only does role checks.
type TaskService interface {
	// CreateTask creates a task owned by ownerID with private status, a
	// zero view count, and isCompleted false. Fails with ErrTitleTaken
	// when the title is already in use. Emits taskCreated after the
	// task is persisted.
	CreateTask(
		ctx context.Context,
		ownerID uuid.UUID,
		title, description string,
		tags []string,
	) (*domain.Task, error)

	// QueryTasks returns a page of tasks matching the filter. An empty
	// result set is not an error.
	QueryTasks(ctx context.Context, filter store.TaskFilter, opts store.PageOptions) (*store.TaskPage, error)

	// QueryMyTasks behaves like QueryTasks but always forces the owner
	// filter to the caller, ignoring any owner the filter carried.
	QueryMyTasks(
		ctx context.Context,
		filter store.TaskFilter,
		opts store.PageOptions,
		callerID uuid.UUID,
	) (*store.TaskPage, error)

	// GetTask retrieves a task by ID. Fails with ErrTaskNotFound.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateTask merges the present fields of the update into the task.
	// Check order: existence, then title uniqueness (excluding the task
	// itself), then ownership. The order decides which error a caller
	// sees when several conditions fail at once, so it must not change.
	// Emits taskUpdated with the full post-merge task.
	UpdateTask(
		ctx context.Context,
		id uuid.UUID,
		update *domain.TaskUpdate,
		callerID uuid.UUID,
	) (*domain.Task, error)

	// DeleteTask removes a task permanently. Check order: existence,
	// then ownership. Deletion broadcasts no event.
	DeleteTask(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error

	// IncrementViewCount bumps the view counter of a shared task by one
	// and emits viewCountUpdated. For a private or missing task it is a
	// silent no-op returning (nil, nil): no error, no event.
	IncrementViewCount(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	taskStore   store.TaskStore
	broadcaster events.Broadcaster
	logger      *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	broadcaster events.Broadcaster,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
		}
	}
	if broadcaster == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "broadcaster cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore:   taskStore,
		broadcaster: broadcaster,
		logger:      logger.With("component", "task_service"),
	}, nil
}

// CreateTask implements TaskService.CreateTask.
//
// The pre-check below gives callers a clean duplicate-title error before
// any write happens; the unique index on the title column is what makes
// the guarantee hold when two creates race past the check, and the
// resulting constraint violation maps to the same ErrTitleTaken.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	title, description string,
	tags []string,
) (*domain.Task, error) {
	if err := s.checkTitleFree(ctx, title, uuid.Nil); err != nil {
		return nil, err
	}

	task, err := domain.NewTask(ownerID, title, description, tags)
	if err != nil {
		s.logger.Warn("failed to construct task",
			"error", err,
			"owner_id", ownerID)
		return nil, NewTaskServiceError("create_task", "invalid task data", err)
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		s.logger.Error("failed to persist task",
			"error", err,
			"task_id", task.ID,
			"owner_id", ownerID)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"owner_id", ownerID,
		"title", task.Title)

	s.broadcaster.Broadcast(ctx, events.Event{Name: events.TaskCreated, Task: task})

	return task, nil
}

// QueryTasks implements TaskService.QueryTasks.
func (s *taskServiceImpl) QueryTasks(
	ctx context.Context,
	filter store.TaskFilter,
	opts store.PageOptions,
) (*store.TaskPage, error) {
	page, err := s.taskStore.List(ctx, filter, opts)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		return nil, NewTaskServiceError("query_tasks", "failed to list tasks", err)
	}
	return page, nil
}

// QueryMyTasks implements TaskService.QueryMyTasks.
func (s *taskServiceImpl) QueryMyTasks(
	ctx context.Context,
	filter store.TaskFilter,
	opts store.PageOptions,
	callerID uuid.UUID,
) (*store.TaskPage, error) {
	// The caller's identity always wins over client-supplied filters.
	filter.OwnerID = callerID
	return s.QueryTasks(ctx, filter, opts)
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task", "error", err, "task_id", id)
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	id uuid.UUID,
	update *domain.TaskUpdate,
	callerID uuid.UUID,
) (*domain.Task, error) {
	if update == nil || update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task for update", "error", err, "task_id", id)
		return nil, NewTaskServiceError("update_task", "failed to retrieve task", err)
	}

	// Uniqueness before ownership. A caller who proposes a taken title
	// for someone else's task gets the title error, not the ownership one.
	if update.Title != nil && *update.Title != task.Title {
		if err := s.checkTitleFree(ctx, *update.Title, task.ID); err != nil {
			return nil, err
		}
	}

	if task.OwnerID != callerID {
		s.logger.Warn("update denied: caller is not the owner",
			"task_id", id,
			"owner_id", task.OwnerID,
			"caller_id", callerID)
		return nil, ErrNotTaskOwner
	}

	if err := update.Apply(task); err != nil {
		return nil, NewTaskServiceError("update_task", "invalid update", err)
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		s.logger.Error("failed to persist task update", "error", err, "task_id", id)
		return nil, NewTaskServiceError("update_task", "failed to save task", err)
	}

	s.logger.Info("task updated", "task_id", id, "caller_id", callerID)

	s.broadcaster.Broadcast(ctx, events.Event{Name: events.TaskUpdated, Task: task})

	return task, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task for delete", "error", err, "task_id", id)
		return NewTaskServiceError("delete_task", "failed to retrieve task", err)
	}

	if task.OwnerID != callerID {
		s.logger.Warn("delete denied: caller is not the owner",
			"task_id", id,
			"owner_id", task.OwnerID,
			"caller_id", callerID)
		return ErrNotTaskOwner
	}

	if err := s.taskStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		s.logger.Error("failed to delete task", "error", err, "task_id", id)
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	// Deletion is intentionally silent: subscribers are not notified.
	s.logger.Info("task deleted", "task_id", id, "caller_id", callerID)

	return nil
}

// IncrementViewCount implements TaskService.IncrementViewCount.
func (s *taskServiceImpl) IncrementViewCount(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Task, error) {
	task, err := s.taskStore.IncrementViewCount(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			// Missing or private: views of private tasks are not
			// counted, and a bad ID is the reader's 404 to discover.
			return nil, nil
		}
		s.logger.Error("failed to increment view count", "error", err, "task_id", id)
		return nil, NewTaskServiceError("increment_view_count", "failed to increment view count", err)
	}

	s.logger.Debug("view count incremented",
		"task_id", id,
		"view_count", task.ViewCount)

	s.broadcaster.Broadcast(ctx, events.Event{Name: events.ViewCountUpdated, Task: task})

	return task, nil
}

// checkTitleFree returns ErrTitleTaken when a task other than excludeID
// already uses the title.
func (s *taskServiceImpl) checkTitleFree(
	ctx context.Context,
	title string,
	excludeID uuid.UUID,
) error {
	_, err := s.taskStore.FindByTitle(ctx, title, excludeID)
	if err == nil {
		return ErrTitleTaken
	}
	if errors.Is(err, store.ErrTaskNotFound) {
		return nil
	}
	s.logger.Error("failed to check title uniqueness", "error", err, "title", title)
	return NewTaskServiceError("check_title", "failed to check title uniqueness", err)
}
