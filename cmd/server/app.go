package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/maintenance"
	"github.com/taskdeck/taskdeck-api/internal/platform/postgres"
	"github.com/taskdeck/taskdeck-api/internal/platform/printing"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
)

// application holds the wired dependency graph for the server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService
	printer     printing.Printer
	maintenance *maintenance.Job
}

// newApplication builds the full dependency graph: database, migrations,
// stores, services, printer, and the maintenance job. Nothing is started
// yet; run does that.
func newApplication(cfg *config.Config) (*application, error) {
	log := slog.Default()

	db, err := setupAppDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, log); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	printer, err := printing.NewPrinter(cfg.Printer)
	if err != nil {
		return nil, fmt.Errorf("failed to create printer: %w", err)
	}

	userService, err := service.NewUserService(
		userStore,
		auth.NewBcryptHasher(0),
		auth.NewBcryptVerifier(),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	taskService, err := service.NewTaskService(
		taskStore,
		userStore,
		printer,
		cfg.Maintenance.PrintTimeout(),
		rnd,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	job := maintenance.NewJob(taskStore, printer, maintenance.Config{
		Interval:     cfg.Maintenance.Interval(),
		Retention:    cfg.Maintenance.Retention(),
		Lookahead:    cfg.Maintenance.Lookahead(),
		PrintTimeout: cfg.Maintenance.PrintTimeout(),
	}, log)

	return &application{
		config:      cfg,
		logger:      log,
		db:          db,
		jwtService:  jwtService,
		userService: userService,
		taskService: taskService,
		printer:     printer,
		maintenance: job,
	}, nil
}

// run starts the maintenance job and the HTTP server, blocking until
// shutdown.
func (app *application) run() error {
	app.maintenance.Start()
	defer app.maintenance.Stop()

	return app.startHTTPServer(app.setupRouter())
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
