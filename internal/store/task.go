package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// DefaultPageLimit is applied when a caller does not specify a limit.
const DefaultPageLimit = 20

// TaskFilter narrows a task listing. Zero-valued fields are ignored.
// Handlers force Status or IsCompleted server-side for the shared and
// completed list variants, overriding anything the client supplied.
type TaskFilter struct {
	// Title matches by exact, case-sensitive equality.
	Title string

	// OwnerID restricts results to a single owner.
	OwnerID uuid.UUID

	// Tags restricts results to tasks carrying every listed tag.
	Tags []string

	// Status restricts results to a single visibility state.
	Status domain.TaskStatus

	// IsCompleted restricts results by completion when non-nil.
	IsCompleted *bool
}

// PageOptions controls sorting and pagination of a task listing.
type PageOptions struct {
	// SortBy holds "field:asc" / "field:desc" pairs. Unknown fields are
	// ignored; the fallback order is creation time, newest first.
	SortBy []string

	// Limit is the page size; DefaultPageLimit when zero or negative.
	Limit int

	// Page is 1-indexed; page 1 when zero or negative.
	Page int
}

// Normalize returns the effective limit and page after applying defaults.
func (o PageOptions) Normalize() (limit, page int) {
	limit = o.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	page = o.Page
	if page <= 0 {
		page = 1
	}
	return limit, page
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Results      []*domain.Task `json:"results"`
	Page         int            `json:"page"`
	Limit        int            `json:"limit"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	// Returns ErrTitleExists if the title is already taken.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// FindByTitle retrieves a task by exact title match, optionally
	// excluding one task ID (used when checking uniqueness during an
	// update). Returns ErrTaskNotFound if no task matches.
	FindByTitle(ctx context.Context, title string, excludeID uuid.UUID) (*domain.Task, error)

	// List retrieves a page of tasks matching the filter.
	// An empty result is not an error; the page simply has no results.
	List(ctx context.Context, filter TaskFilter, opts PageOptions) (*TaskPage, error)

	// Update saves changes to an existing task.
	// Returns ErrTaskNotFound if the task does not exist and
	// ErrTitleExists if the new title collides with another task.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	// This operation is permanent and cannot be undone.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByOwner removes every task owned by the given user and
	// returns how many were removed. An owner with no tasks is not an
	// error. Used when an account is deleted.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// IncrementViewCount atomically increments the view counter of the
	// task with the given ID, but only while its status is shared.
	// Returns the updated task, or ErrTaskNotFound when the task does
	// not exist or is private (no row matched the conditional update).
	IncrementViewCount(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
