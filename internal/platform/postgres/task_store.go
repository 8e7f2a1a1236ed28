package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// taskTitleConstraint is the unique index backing global title uniqueness.
const taskTitleConstraint = "tasks_title_key"

// taskColumns is the select list shared by every task query.
const taskColumns = `id, owner_id, title, description, status, view_count, is_completed, tags, created_at, updated_at`

// sortableTaskColumns whitelists the fields a caller may sort by,
// mapping API names to column names.
var sortableTaskColumns = map[string]string{
	"title":       "title",
	"status":      "status",
	"view_count":  "view_count",
	"isCompleted": "is_completed",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a new store instance bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create.
// Returns store.ErrTitleExists when the unique title index rejects the row.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, status, view_count, is_completed, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Status,
		task.ViewCount,
		task.IsCompleted,
		tags,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err, taskTitleConstraint) {
			log.Debug("duplicate title during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("title", task.Title))
			return store.ErrTitleExists
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	task, err := s.scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// FindByTitle implements store.TaskStore.FindByTitle.
// Title comparison is exact and case-sensitive.
func (s *PostgresTaskStore) FindByTitle(
	ctx context.Context,
	title string,
	excludeID uuid.UUID,
) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE title = $1 AND id <> $2`, taskColumns)

	task, err := s.scanTask(s.db.QueryRowContext(ctx, query, title, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find task by title",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return task, nil
}

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	filter store.TaskFilter,
	opts store.PageOptions,
) (*store.TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTaskFilter(filter)
	limit, page := opts.Normalize()

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM tasks%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns,
		where,
		buildTaskOrder(opts.SortBy),
		len(args)+1,
		len(args)+2,
	)
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]*domain.Task, 0, limit)
	for rows.Next() {
		task, err := s.scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		results = append(results, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	totalPages := (total + limit - 1) / limit

	return &store.TaskPage{
		Results:      results,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
		TotalResults: total,
	}, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, view_count = $5,
		    is_completed = $6, tags = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.ViewCount,
		task.IsCompleted,
		tags,
		task.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err, taskTitleConstraint) {
			return store.ErrTitleExists
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// DeleteByOwner implements store.TaskStore.DeleteByOwner.
func (s *PostgresTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete tasks by owner",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return 0, MapError(err)
	}

	return result.RowsAffected()
}

// IncrementViewCount implements store.TaskStore.IncrementViewCount.
// The status condition makes the increment and the visibility check one
// atomic statement: private tasks never match, so their counters never move.
func (s *PostgresTaskStore) IncrementViewCount(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Task, error) {
	query := fmt.Sprintf(`
		UPDATE tasks
		SET view_count = view_count + 1
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, taskColumns)

	task, err := s.scanTask(s.db.QueryRowContext(ctx, query, id, domain.TaskStatusShared))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to increment view count",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func (s *PostgresTaskStore) scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string
	var tags []byte

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&task.ViewCount,
		&task.IsCompleted,
		&tags,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if err := json.Unmarshal(tags, &task.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	return &task, nil
}

// buildTaskFilter renders the WHERE clause for a task filter.
// Returns the clause (with leading " WHERE", or empty) and its arguments.
func buildTaskFilter(filter store.TaskFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Title != "" {
		add("title = $%d", filter.Title)
	}
	if filter.OwnerID != uuid.Nil {
		add("owner_id = $%d", filter.OwnerID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.IsCompleted != nil {
		add("is_completed = $%d", *filter.IsCompleted)
	}
	if len(filter.Tags) > 0 {
		// jsonb containment: the stored tag array must include every
		// requested tag.
		encoded, err := json.Marshal(filter.Tags)
		if err == nil {
			add("tags @> $%d::jsonb", encoded)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildTaskOrder renders the ORDER BY clause from "field:direction"
// pairs, silently skipping unknown fields and directions.
func buildTaskOrder(sortBy []string) string {
	var parts []string
	for _, pair := range sortBy {
		field, dir, _ := strings.Cut(pair, ":")
		col, ok := sortableTaskColumns[field]
		if !ok {
			continue
		}
		switch strings.ToLower(dir) {
		case "desc":
			parts = append(parts, col+" DESC")
		case "asc", "":
			parts = append(parts, col+" ASC")
		}
	}
	if len(parts) == 0 {
		return "created_at DESC"
	}
	return strings.Join(parts, ", ")
}
