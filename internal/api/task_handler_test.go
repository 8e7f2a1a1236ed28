package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/mocks"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// newTaskRouter mounts the handler on the task routes without the auth
// middleware; tests inject identity directly into the request context.
func newTaskRouter(svc service.TaskService, userStore store.UserStore) *chi.Mux {
	handler := NewTaskHandler(svc, userStore, nil)

	r := chi.NewRouter()
	r.Post("/tasks", handler.CreateTask)
	r.Get("/tasks", handler.ListTasks)
	r.Get("/tasks/shared", handler.ListSharedTasks)
	r.Get("/tasks/completed", handler.ListCompletedTasks)
	r.Get("/tasks/my/tasks", handler.ListMyTasks)
	r.Get("/tasks/{taskId}", handler.GetTask)
	r.Patch("/tasks/{taskId}", handler.UpdateTask)
	r.Delete("/tasks/{taskId}", handler.DeleteTask)
	return r
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := shared.WithIdentity(req.Context(), userID, domain.RoleUser)
	return req.WithContext(ctx)
}

func mustTask(t *testing.T, ownerID uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(ownerID, title, "", nil)
	require.NoError(t, err)
	return task
}

func TestCreateTaskHandler(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			CreateTaskFn: func(ctx context.Context, gotOwner uuid.UUID, title, description string, tags []string) (*domain.Task, error) {
				assert.Equal(t, ownerID, gotOwner)
				assert.Equal(t, "New task", title)
				return mustTask(t, gotOwner, title), nil
			},
		}
		router := newTaskRouter(svc, nil)

		body := []byte(`{"title":"New task","description":"","tags":["a"]}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/tasks", body, ownerID))

		require.Equal(t, http.StatusCreated, rec.Code)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "New task", payload["title"])
		assert.Equal(t, "PRIVATE", payload["status"])
		assert.Equal(t, float64(0), payload["view_count"])
	})

	t.Run("duplicate title is 400 on create", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			CreateTaskFn: func(ctx context.Context, ownerID uuid.UUID, title, description string, tags []string) (*domain.Task, error) {
				return nil, service.ErrTitleTaken
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/tasks", []byte(`{"title":"Taken"}`), ownerID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		t.Parallel()

		router := newTaskRouter(&mocks.MockTaskService{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/tasks", []byte(`{"description":"no title"}`), ownerID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		router := newTaskRouter(&mocks.MockTaskService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte(`{"title":"x"}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetTaskHandler(t *testing.T) {
	t.Parallel()

	t.Run("shared task read bumps the view count", func(t *testing.T) {
		t.Parallel()

		task := mustTask(t, uuid.New(), "Shared read")
		task.Status = domain.TaskStatusShared
		task.ViewCount = 4

		incremented := false
		svc := &mocks.MockTaskService{
			GetTaskFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				require.Equal(t, task.ID, id)
				return task, nil
			},
			IncrementViewCountFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				incremented = true
				bumped := *task
				bumped.ViewCount = 5
				return &bumped, nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, incremented)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, float64(5), payload["view_count"])
	})

	t.Run("private task read does not count", func(t *testing.T) {
		t.Parallel()

		task := mustTask(t, uuid.New(), "Private read")
		svc := &mocks.MockTaskService{
			GetTaskFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return task, nil
			},
			IncrementViewCountFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				t.Fatal("private reads must not touch the view count")
				return nil, nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/"+task.ID.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			GetTaskFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
				return nil, service.ErrTaskNotFound
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/"+uuid.NewString(), nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()

		router := newTaskRouter(&mocks.MockTaskService{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateTaskHandler(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()

	t.Run("duplicate title is 409 on update", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(ctx context.Context, id uuid.UUID, update *domain.TaskUpdate, caller uuid.UUID) (*domain.Task, error) {
				return nil, service.ErrTitleTaken
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/tasks/"+uuid.NewString(), []byte(`{"title":"Taken"}`), callerID))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("not owner is 403", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(ctx context.Context, id uuid.UUID, update *domain.TaskUpdate, caller uuid.UUID) (*domain.Task, error) {
				return nil, service.ErrNotTaskOwner
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/tasks/"+uuid.NewString(), []byte(`{"title":"Mine now"}`), callerID))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("status outside the enum rejected", func(t *testing.T) {
		t.Parallel()

		router := newTaskRouter(&mocks.MockTaskService{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/tasks/"+uuid.NewString(), []byte(`{"status":"ARCHIVED"}`), callerID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		task := mustTask(t, callerID, "Renamed")
		task.IsCompleted = true

		svc := &mocks.MockTaskService{
			UpdateTaskFn: func(ctx context.Context, id uuid.UUID, update *domain.TaskUpdate, caller uuid.UUID) (*domain.Task, error) {
				assert.Equal(t, callerID, caller)
				require.NotNil(t, update.IsCompleted)
				assert.True(t, *update.IsCompleted)
				return task, nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/tasks/"+task.ID.String(), []byte(`{"isCompleted":true}`), callerID))

		require.Equal(t, http.StatusOK, rec.Code)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, true, payload["isCompleted"])
	})
}

func TestDeleteTaskHandler(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			DeleteTaskFn: func(ctx context.Context, id uuid.UUID, caller uuid.UUID) error {
				assert.Equal(t, callerID, caller)
				return nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/tasks/"+uuid.NewString(), nil, callerID))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockTaskService{
			DeleteTaskFn: func(ctx context.Context, id uuid.UUID, caller uuid.UUID) error {
				return service.ErrTaskNotFound
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/tasks/"+uuid.NewString(), nil, callerID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListEndpointsForceFilters(t *testing.T) {
	t.Parallel()

	t.Run("shared list forces SHARED status", func(t *testing.T) {
		t.Parallel()

		var gotFilter store.TaskFilter
		svc := &mocks.MockTaskService{
			QueryTasksFn: func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions) (*store.TaskPage, error) {
				gotFilter = filter
				return &store.TaskPage{Page: 1, Limit: 20}, nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		// The client asks for private tasks; the route wins.
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/shared?status=PRIVATE", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.TaskStatusShared, gotFilter.Status)
	})

	t.Run("completed list forces isCompleted", func(t *testing.T) {
		t.Parallel()

		var gotFilter store.TaskFilter
		svc := &mocks.MockTaskService{
			QueryTasksFn: func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions) (*store.TaskPage, error) {
				gotFilter = filter
				return &store.TaskPage{Page: 1, Limit: 20}, nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/completed?isCompleted=false", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotFilter.IsCompleted)
		assert.True(t, *gotFilter.IsCompleted)
	})

	t.Run("my list passes the caller through", func(t *testing.T) {
		t.Parallel()

		callerID := uuid.New()
		var gotCaller uuid.UUID
		svc := &mocks.MockTaskService{
			QueryMyTasksFn: func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions, caller uuid.UUID) (*store.TaskPage, error) {
				gotCaller = caller
				return &store.TaskPage{Page: 1, Limit: 20}, nil
			},
		}
		router := newTaskRouter(svc, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/tasks/my/tasks", nil, callerID))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, callerID, gotCaller)
	})
}

func TestListResponseShaping(t *testing.T) {
	t.Parallel()

	owner, err := domain.NewUser("owner@example.com", "password123")
	require.NoError(t, err)

	task := mustTask(t, owner.ID, "Shaped")
	page := &store.TaskPage{
		Results:      []*domain.Task{task},
		Page:         1,
		Limit:        20,
		TotalPages:   1,
		TotalResults: 1,
	}

	svc := &mocks.MockTaskService{
		QueryTasksFn: func(ctx context.Context, filter store.TaskFilter, opts store.PageOptions) (*store.TaskPage, error) {
			return page, nil
		},
	}

	userStore := mocks.NewMockUserStore()
	require.NoError(t, userStore.Create(context.Background(), owner))

	router := newTaskRouter(svc, userStore)

	t.Run("projectBy hides fields", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/shared?projectBy=description:hide,tags:hide", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Results []map[string]any `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Results, 1)
		assert.NotContains(t, body.Results[0], "description")
		assert.NotContains(t, body.Results[0], "tags")
		assert.Contains(t, body.Results[0], "title")
	})

	t.Run("populate embeds the owner", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/shared?populate=owner", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Results []struct {
				Owner map[string]any `json:"owner"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Results, 1)
		assert.Equal(t, "owner@example.com", body.Results[0].Owner["email"])
	})

	t.Run("pagination envelope", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/shared", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["page"])
		assert.Equal(t, float64(20), body["limit"])
		assert.Equal(t, float64(1), body["totalPages"])
		assert.Equal(t, float64(1), body["totalResults"])
	})
}
