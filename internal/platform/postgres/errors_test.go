package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/taskhive/taskhive-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil stays nil", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), store.ErrNotFound},
		{"unique violation", pgError("23505", "tasks_title_key"), store.ErrDuplicate},
		{"foreign key violation", pgError("23503", "tasks_owner_id_fkey"), store.ErrInvalidEntity},
		{"check violation", pgError("23514", "tasks_status_check"), store.ErrInvalidEntity},
		{"not null violation", pgError("23502", ""), store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
			} else {
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}

	t.Run("unrelated errors pass through", func(t *testing.T) {
		t.Parallel()

		err := errors.New("network down")
		assert.Equal(t, err, MapError(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	titleClash := pgError("23505", "tasks_title_key")

	assert.True(t, IsUniqueViolation(titleClash, "tasks_title_key"))
	assert.True(t, IsUniqueViolation(titleClash, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", titleClash), "tasks_title_key"))
	assert.False(t, IsUniqueViolation(titleClash, "users_email_key"))
	assert.False(t, IsUniqueViolation(pgError("23503", "x"), ""))
	assert.False(t, IsUniqueViolation(errors.New("other"), ""))
}
