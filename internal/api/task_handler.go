package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// TaskHandler exposes the task endpoints over HTTP.
type TaskHandler struct {
	taskService service.TaskService
	userStore   store.UserStore
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a task handler. The user store is only used to
// populate owner details on request.
func NewTaskHandler(taskService service.TaskService, userStore store.UserStore, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		userStore:   userStore,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request parameters", err)
		return
	}

	task, err := h.taskService.CreateTask(ctx, userID, req.Title, req.Description, req.Tags)
	if err != nil {
		// A duplicate title on create is a client mistake, not a
		// conflict with an in-flight edit.
		if errors.Is(err, service.ErrTitleTaken) {
			respondError(w, r, http.StatusBadRequest, "Title already taken", err)
			return
		}
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskPayload(task))
}

// ListTasks handles GET /api/tasks (admin-scoped browse over all tasks).
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// ListSharedTasks handles GET /api/tasks/shared. The status filter is
// forced regardless of query parameters.
func (h *TaskHandler) ListSharedTasks(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(f *store.TaskFilter) {
		f.Status = domain.TaskStatusShared
	})
}

// ListCompletedTasks handles GET /api/tasks/completed.
func (h *TaskHandler) ListCompletedTasks(w http.ResponseWriter, r *http.Request) {
	completed := true
	h.list(w, r, func(f *store.TaskFilter) {
		f.IsCompleted = &completed
	})
}

// ListMyTasks handles GET /api/tasks/my/tasks, restricted to the
// authenticated caller's own tasks.
func (h *TaskHandler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	q := parseListQuery(r.URL.Query())
	page, err := h.taskService.QueryMyTasks(ctx, q.Filter, q.Opts, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.respondPage(w, r, page, q)
}

// list is the shared implementation behind the public list endpoints.
// force, when non-nil, pins filter fields the route dictates.
func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request, force func(*store.TaskFilter)) {
	ctx := r.Context()

	q := parseListQuery(r.URL.Query())
	if force != nil {
		force(&q.Filter)
	}

	page, err := h.taskService.QueryTasks(ctx, q.Filter, q.Opts)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	h.respondPage(w, r, page, q)
}

// GetTask handles GET /api/tasks/{taskId}. Reading a shared task bumps
// its view count and the bumped value is what the caller sees.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid task ID format", err)
		return
	}

	task, err := h.taskService.GetTask(ctx, taskID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	if task.Status == domain.TaskStatusShared {
		if bumped, err := h.taskService.IncrementViewCount(ctx, taskID); err != nil {
			h.logger.WarnContext(ctx, "failed to increment view count",
				slog.String("task_id", taskID.String()),
				slog.String("error", err.Error()))
		} else if bumped != nil {
			task = bumped
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskPayload(task))
}

// UpdateTask handles PATCH /api/tasks/{taskId}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid task ID format", err)
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request parameters", err)
		return
	}

	update := &domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		Tags:        req.Tags,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		update.Status = &status
	}

	task, err := h.taskService.UpdateTask(ctx, taskID, update, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskPayload(task))
}

// DeleteTask handles DELETE /api/tasks/{taskId}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := shared.UserIDFromContext(ctx)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid task ID format", err)
		return
	}

	if err := h.taskService.DeleteTask(ctx, taskID, userID); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondPage renders a task page, applying any requested projection
// and owner population to each result.
func (h *TaskHandler) respondPage(w http.ResponseWriter, r *http.Request, page *store.TaskPage, q listQuery) {
	ctx := r.Context()

	results := make([]map[string]any, 0, len(page.Results))
	owners := map[uuid.UUID]*UserResponse{}
	for _, task := range page.Results {
		payload := taskPayload(task)
		if q.Populate == "owner" && h.userStore != nil {
			owner, ok := owners[task.OwnerID]
			if !ok {
				user, err := h.userStore.GetByID(ctx, task.OwnerID)
				if err == nil {
					resp := userToResponse(user)
					owner = &resp
				}
				owners[task.OwnerID] = owner
			}
			if owner != nil {
				payload["owner"] = owner
			}
		}
		applyProjection(payload, q.ProjectBy)
		results = append(results, payload)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"results":      results,
		"page":         page.Page,
		"limit":        page.Limit,
		"totalPages":   page.TotalPages,
		"totalResults": page.TotalResults,
	})
}
