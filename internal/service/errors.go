package service

import (
	"errors"
	"fmt"

	"github.com/taskhive/taskhive-api/internal/store"
)

// Common sentinel errors for TaskService
var (
	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTitleTaken indicates another task already uses the title.
	ErrTitleTaken = errors.New("task title already taken")

	// ErrNotTaskOwner indicates the caller does not own the task it is
	// trying to mutate or delete.
	ErrNotTaskOwner = errors.New("caller is not the task owner")

	// ErrEmptyUpdate indicates an update carried no fields.
	ErrEmptyUpdate = errors.New("update must carry at least one field")
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Known sentinels pass through directly so callers can match them with
// errors.Is; store-level sentinels are mapped to their service-level
// equivalents.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrTitleTaken),
		errors.Is(err, ErrNotTaskOwner),
		errors.Is(err, ErrEmptyUpdate):
		return err
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrTitleExists):
		return ErrTitleTaken
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
