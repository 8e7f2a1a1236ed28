package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("registration assigns the user role", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("Someone@Example.COM", "password123")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "someone@example.com", user.Email)
		assert.Equal(t, RoleUser, user.Role)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("not-an-email", "password123")
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("short password rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("someone@example.com", "short")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})
}

func TestIsValidRole(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidRole(RoleUser))
	assert.True(t, IsValidRole(RoleAdmin))
	assert.False(t, IsValidRole(Role("superuser")))
	assert.False(t, IsValidRole(Role("")))
}
