package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/mocks"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

func newAuthTestHandler(userStore *mocks.MockUserStore, jwtService *mocks.MockJWTService) *AuthHandler {
	if jwtService == nil {
		jwtService = &mocks.MockJWTService{Token: "access-token", RefreshToken: "refresh-token"}
	}
	return NewAuthHandler(
		userStore,
		jwtService,
		&mocks.MockPasswordVerifier{},
		config.AuthConfig{
			JWTSecret:                   "test-jwt-secret-that-is-32-chars-long",
			TokenLifetimeMinutes:        60,
			RefreshTokenLifetimeMinutes: 1440,
		},
		nil,
	)
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("created with user role", func(t *testing.T) {
		t.Parallel()

		userStore := mocks.NewMockUserStore()
		handler := newAuthTestHandler(userStore, nil)

		rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "New@Example.com",
			Password: "password123",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, domain.RoleUser, resp.Role)
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "refresh-token", resp.RefreshToken)

		// Stored lowercased, with only the hash.
		stored, ok := userStore.Users["new@example.com"]
		require.True(t, ok)
		assert.Empty(t, stored.Password)
		assert.NotEmpty(t, stored.HashedPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		userStore := mocks.NewMockUserStore()
		handler := newAuthTestHandler(userStore, nil)

		first := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "dup@example.com",
			Password: "password123",
		})
		require.Equal(t, http.StatusCreated, first.Code)

		second := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "dup@example.com",
			Password: "password456",
		})
		assert.Equal(t, http.StatusConflict, second.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()

		handler := newAuthTestHandler(mocks.NewMockUserStore(), nil)

		rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "not-an-email",
			Password: "password123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "ok@example.com",
			Password: "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	seedUser := func(t *testing.T) *mocks.MockUserStore {
		t.Helper()
		userStore := mocks.NewMockUserStore()
		user, err := domain.NewUser("known@example.com", "password123")
		require.NoError(t, err)
		require.NoError(t, userStore.Create(context.Background(), user))
		return userStore
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		handler := newAuthTestHandler(seedUser(t), nil)

		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "known@example.com",
			Password: "password123",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "access-token", resp.AccessToken)

		expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
		require.NoError(t, err)
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		t.Parallel()

		handler := newAuthTestHandler(seedUser(t), nil)

		wrongPassword := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "known@example.com",
			Password: "nope",
		})
		unknownEmail := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "ghost@example.com",
			Password: "password123",
		})

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)

		var a, b shared.ErrorResponse
		require.NoError(t, json.Unmarshal(wrongPassword.Body.Bytes(), &a))
		require.NoError(t, json.Unmarshal(unknownEmail.Body.Bytes(), &b))
		assert.Equal(t, a.Error, b.Error)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("issues a fresh pair", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		jwtService := &mocks.MockJWTService{
			Token:        "new-access",
			RefreshToken: "new-refresh",
			Claims: &auth.Claims{
				UserID: userID,
				Role:   domain.RoleUser,
			},
		}
		handler := newAuthTestHandler(mocks.NewMockUserStore(), jwtService)

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: "old-refresh",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "new-access", resp.AccessToken)
		assert.Equal(t, "new-refresh", resp.RefreshToken)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{
			ValidateErr: auth.ErrInvalidRefreshToken,
		}
		handler := newAuthTestHandler(mocks.NewMockUserStore(), jwtService)

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: "garbage",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		t.Parallel()

		handler := newAuthTestHandler(mocks.NewMockUserStore(), nil)

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
