package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// UserHandler exposes the admin user-management endpoints. Deletion
// goes through the user service so the account and its tasks disappear
// together.
type UserHandler struct {
	userStore   store.UserStore
	userService service.UserService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewUserHandler creates a user handler backed by the given store and
// service.
func NewUserHandler(userStore store.UserStore, userService service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userStore:   userStore,
		userService: userService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "user_handler")),
	}
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := store.DefaultPageLimit
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}
	page := 1
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed > 0 {
		page = parsed
	}

	users, err := h.userStore.List(ctx, limit, (page-1)*limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for _, user := range users {
		results = append(results, userToResponse(user))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"results": results,
		"page":    page,
		"limit":   limit,
	})
}

// GetUser handles GET /api/users/{userId}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid user ID format", err)
		return
	}

	user, err := h.userStore.GetByID(ctx, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateUser handles PATCH /api/users/{userId}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid user ID format", err)
		return
	}

	var req UpdateUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request parameters", err)
		return
	}

	user, err := h.userStore.GetByID(ctx, userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.Password != nil {
		user.Password = *req.Password
	}

	if err := h.userStore.Update(ctx, user); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteUser handles DELETE /api/users/{userId}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid user ID format", err)
		return
	}

	if err := h.userService.DeleteUser(ctx, userID); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
