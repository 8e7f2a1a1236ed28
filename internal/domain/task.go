package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the visibility of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPrivate TaskStatus = "PRIVATE"
	TaskStatusShared  TaskStatus = "SHARED"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner    = errors.New("task owner ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrNegativeViewCount = errors.New("task view count cannot be negative")
)

// Task represents a single task owned by a user. The title is globally
// unique; visibility is controlled by Status. ViewCount only advances
// while the task is shared.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	ViewCount   int        `json:"view_count"`
	IsCompleted bool       `json:"isCompleted"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a new Task owned by the given user.
// It generates a new UUID for the task ID, defaults the status to private
// with a zero view count, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, title, description string, tags []string) (*Task, error) {
	if tags == nil {
		tags = []string{}
	}

	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      TaskStatusPrivate,
		ViewCount:   0,
		IsCompleted: false,
		Tags:        tags,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwner
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	if t.ViewCount < 0 {
		return ErrNegativeViewCount
	}

	return nil
}

// TaskUpdate describes a partial update to a task. Nil fields are left
// unchanged when the update is applied. The owner and view count cannot
// be changed through an update.
type TaskUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	IsCompleted *bool       `json:"isCompleted,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u *TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.IsCompleted == nil && u.Tags == nil
}

// Apply merges the present fields of the update into the task and bumps
// the UpdatedAt timestamp. Returns an error if the merged task fails
// validation.
func (u *TaskUpdate) Apply(task *Task) error {
	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Description != nil {
		task.Description = *u.Description
	}
	if u.Status != nil {
		task.Status = *u.Status
	}
	if u.IsCompleted != nil {
		task.IsCompleted = *u.IsCompleted
	}
	if u.Tags != nil {
		task.Tags = u.Tags
	}
	task.UpdatedAt = time.Now().UTC()

	return task.Validate()
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPrivate, TaskStatusShared:
		return true
	default:
		return false
	}
}
