package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/platform/postgres"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/service/auth"
	"github.com/taskhive/taskhive-api/internal/store"
	"github.com/taskhive/taskhive-api/internal/ws"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	passwordHasher   *auth.BcryptHasher
	taskService      service.TaskService
	userService      service.UserService
	hub              *ws.Hub
	cancelBackground context.CancelFunc
}

// newApplication wires the stores, services, and the websocket hub on
// top of an already-open database connection. The hub starts running
// immediately; cleanup stops it.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	hasher := auth.NewBcryptHasher()

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, hasher, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	hub := ws.NewHub(logger,
		ws.WithSendBufferSize(cfg.WS.SendBufferSize),
		ws.WithWriteTimeout(cfg.WS.WriteTimeout()),
	)

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	go hub.Run(backgroundCtx)

	taskService, err := service.NewTaskService(taskStore, hub, logger)
	if err != nil {
		cancelBackground()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	userService, err := service.NewUserService(db, userStore, taskStore, logger)
	if err != nil {
		cancelBackground()
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		userStore:        userStore,
		taskStore:        taskStore,
		jwtService:       jwtService,
		passwordHasher:   hasher,
		taskService:      taskService,
		userService:      userService,
		hub:              hub,
		cancelBackground: cancelBackground,
	}, nil
}

// cleanup releases application resources in reverse dependency order.
func (app *application) cleanup() {
	app.cancelBackground()
	<-app.hub.Done()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
