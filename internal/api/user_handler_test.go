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
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/mocks"
)

func newUserRouter(userStore *mocks.MockUserStore) *chi.Mux {
	userService := &mocks.MockUserService{UserStore: userStore, TaskStore: mocks.NewMockTaskStore()}
	handler := NewUserHandler(userStore, userService, nil)

	r := chi.NewRouter()
	r.Get("/users", handler.ListUsers)
	r.Get("/users/{userId}", handler.GetUser)
	r.Patch("/users/{userId}", handler.UpdateUser)
	r.Delete("/users/{userId}", handler.DeleteUser)
	return r
}

func seedUsers(t *testing.T, emails ...string) *mocks.MockUserStore {
	t.Helper()

	userStore := mocks.NewMockUserStore()
	for _, email := range emails {
		user, err := domain.NewUser(email, "password123")
		require.NoError(t, err)
		require.NoError(t, userStore.Create(context.Background(), user))
	}
	return userStore
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	router := newUserRouter(seedUsers(t, "a@example.com", "b@example.com"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []UserResponse `json:"results"`
		Page    int            `json:"page"`
		Limit   int            `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Results, 2)
	assert.Equal(t, 1, body.Page)
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	userStore := seedUsers(t, "known@example.com")
	router := newUserRouter(userStore)

	known := userStore.Users["known@example.com"]

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+known.ID.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "known@example.com", resp.Email)

		// The hash must never appear in a response.
		assert.NotContains(t, rec.Body.String(), known.HashedPassword)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/nope", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()

	t.Run("admin promotes a user", func(t *testing.T) {
		t.Parallel()

		userStore := seedUsers(t, "promote@example.com")
		router := newUserRouter(userStore)
		target := userStore.Users["promote@example.com"]

		body := []byte(`{"role":"admin"}`)
		req := httptest.NewRequest(http.MethodPatch, "/users/"+target.ID.String(), bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, domain.RoleAdmin, resp.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		t.Parallel()

		userStore := seedUsers(t, "fixed@example.com")
		router := newUserRouter(userStore)
		target := userStore.Users["fixed@example.com"]

		req := httptest.NewRequest(http.MethodPatch, "/users/"+target.ID.String(), bytes.NewReader([]byte(`{"role":"root"}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.RoleUser, target.Role)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	userStore := seedUsers(t, "gone@example.com")
	router := newUserRouter(userStore)
	target := userStore.Users["gone@example.com"]

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+target.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+target.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
