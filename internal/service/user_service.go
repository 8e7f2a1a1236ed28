package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/store"
)

// UserService owns account operations that touch more than one store.
type UserService interface {
	// DeleteUser removes the user and every task they own in a single
	// transaction. Returns store.ErrUserNotFound if the user does not
	// exist; their tasks are then left untouched.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userServiceImpl struct {
	db        *sql.DB
	userStore store.UserStore
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewUserService creates a new UserService. The db handle is used to
// open transactions spanning both stores.
func NewUserService(
	db *sql.DB,
	userStore store.UserStore,
	taskStore store.TaskStore,
	logger *slog.Logger,
) (UserService, error) {
	if userStore == nil {
		return nil, errors.New("userStore cannot be nil")
	}
	if taskStore == nil {
		return nil, errors.New("taskStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		db:        db,
		userStore: userStore,
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "user_service")),
	}, nil
}

// DeleteUser implements UserService.DeleteUser.
func (s *userServiceImpl) DeleteUser(ctx context.Context, id uuid.UUID) error {
	// Resolve the ID before opening a transaction for nothing.
	if _, err := s.userStore.GetByID(ctx, id); err != nil {
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		removed, err := s.taskStore.WithTx(tx).DeleteByOwner(ctx, id)
		if err != nil {
			return err
		}
		if err := s.userStore.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Info("user deleted",
			"user_id", id,
			"tasks_removed", removed)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return store.ErrUserNotFound
		}
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return err
	}

	return nil
}
