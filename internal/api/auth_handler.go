package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service/auth"
	"github.com/taskhive/taskhive-api/internal/store"
)

// AuthHandler exposes registration, login, and token refresh.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	validator        *validator.Validate
	logger           *slog.Logger
	tokenLifetime    time.Duration
}

// NewAuthHandler creates an auth handler with the given dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		validator:        validator.New(),
		logger:           logger.With(slog.String("component", "auth_handler")),
		tokenLifetime:    time.Duration(authConfig.TokenLifetimeMinutes) * time.Minute,
	}
}

// Register handles POST /api/auth/register. Every new account gets the
// "user" role; there is no self-service path to admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request parameters", err)
		return
	}

	user, err := domain.NewUser(req.Email, req.Password)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := h.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			respondError(w, r, http.StatusConflict, "Email already registered", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	h.respondWithTokens(w, r, user, http.StatusCreated)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request parameters", err)
		return
	}

	user, err := h.userStore.GetByEmail(ctx, req.Email)
	if err != nil {
		if store.IsNotFoundError(err) {
			// Same message as a wrong password so the endpoint does
			// not confirm which emails are registered.
			respondError(w, r, http.StatusUnauthorized, "Invalid email or password", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "Login failed", err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		respondError(w, r, http.StatusUnauthorized, "Invalid email or password", err)
		return
	}

	h.respondWithTokens(w, r, user, http.StatusOK)
}

// RefreshToken handles POST /api/auth/refresh, exchanging a valid
// refresh token for a fresh token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request parameters", err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	accessToken, err := h.jwtService.GenerateToken(ctx, claims.UserID, claims.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, claims.UserID, claims.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().UTC().Add(h.tokenLifetime).Format(time.RFC3339),
	})
}

// respondWithTokens issues a token pair for the user and writes the
// auth response.
func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, user *domain.User, status int) {
	ctx := r.Context()

	accessToken, err := h.jwtService.GenerateToken(ctx, user.ID, user.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, user.ID, user.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().UTC().Add(h.tokenLifetime).Format(time.RFC3339),
	})
}
