package app

import (
	"context"
	"warrantyhub/config"
	"warrantyhub/internal/controllers"
	"warrantyhub/internal/database"
	"warrantyhub/internal/handlers/middleware"
	"warrantyhub/internal/jobs"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	return Build(db, config)
}

// Build wires repositories, services, jobs and controllers on top of an
// open database. The scheduler is created here but not started.
func Build(db database.DB, config config.Config) (*App, error) {
	log := logger.New("app").Function("Build")

	repos := repositories.New(db)

	service, err := services.New(db, config, repos)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	if err := jobs.RegisterAllJobs(service.Scheduler, config, service); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware.New(db, config),
		Services:    service,
		Repos:       repos,
		Controllers: controllers.New(service, repos, config, db),
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	missing := map[string]bool{
		"services.Transaction":  a.Services.Transaction == nil,
		"services.Scheduler":    a.Services.Scheduler == nil,
		"services.Warranty":     a.Services.Warranty == nil,
		"services.Links":        a.Services.Links == nil,
		"services.Mailer":       a.Services.Mailer == nil,
		"services.Reminder":     a.Services.Reminder == nil,
		"repos.Machine":         a.Repos.Machine == nil,
		"repos.Sale":            a.Repos.Sale == nil,
		"repos.ActionLog":       a.Repos.ActionLog == nil,
		"controllers.ActionLog": a.Controllers.ActionLog == nil,
		"controllers.Reminder":  a.Controllers.Reminder == nil,
		"controllers.Warranty":  a.Controllers.Warranty == nil,
	}

	for name, isNil := range missing {
		if isNil {
			return log.ErrMsg(name + " is nil")
		}
	}

	return nil
}

// StartScheduler starts the cron loop when SCHEDULER_ENABLED is set.
func (a *App) StartScheduler(ctx context.Context) error {
	log := logger.New("app").Function("StartScheduler")

	if !a.Config.SchedulerEnabled {
		log.Info("Scheduler disabled, jobs only run when triggered over HTTP")
		return nil
	}

	if err := a.Services.Scheduler.EnsureInitialized(ctx); err != nil {
		return log.Err("failed to start scheduler", err)
	}
	return nil
}

func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
