package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/dmorocode/portfolio-sistema/internal/portfolio/http"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/mail"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store/drivers/sqlite"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/upload"
	"github.com/dmorocode/portfolio-sistema/pkg/cryptox"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portfolio service with all its
// dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	sessions session.Registry
	files    upload.FileStore
	mailer   mail.Mailer

	authService     *service.AuthService
	mfaService      *service.MFAService
	resetService    *service.ResetService
	userService     *service.UserService
	projectService  *service.ProjectService
	categoryService *service.CategoryService
	activityService *service.ActivityService
	housekeeping    *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portfolio",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessions(); err != nil {
		return nil, err
	}
	if err := app.initFiles(); err != nil {
		return nil, err
	}
	app.initMailer()
	app.initServices()

	if err := app.bootstrap(); err != nil {
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("portfolio service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portfolio service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session registry", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portfolio service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initSessions() error {
	switch app.cfg.SessionBackend {
	case "redis":
		registry, err := session.NewRedis(app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.sessions = registry
		app.logger.Info("using redis session registry", "addr", app.cfg.RedisAddr)
	case "memory", "":
		app.sessions = session.NewMemory()
		app.logger.Info("using in-memory session registry")
	default:
		return fmt.Errorf("unknown session backend %q", app.cfg.SessionBackend)
	}
	return nil
}

func (app *Application) initFiles() error {
	files, err := upload.NewDisk(app.cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}
	app.files = files
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.mailer = mail.NewLog()
		app.logger.Warn("SMTP not configured, reset emails will be logged")
		return
	}

	mailer, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.EmailFrom,
	})
	if err != nil {
		app.logger.Error("failed to initialize SMTP mailer, falling back to log", "error", err)
		app.mailer = mail.NewLog()
		return
	}
	app.mailer = mailer
}

func (app *Application) initServices() {
	enforcement := service.MFAEnforcement(app.cfg.MFAEnforcement)
	if !enforcement.Valid() {
		app.logger.Warn("unknown MFA enforcement, using admin", "value", app.cfg.MFAEnforcement)
		enforcement = service.MFAEnforceAdmin
	}

	app.activityService = &service.ActivityService{Store: app.db}
	app.mfaService = &service.MFAService{
		Store:    app.db,
		Activity: app.activityService,
		Issuer:   app.cfg.Issuer,
	}
	app.authService = &service.AuthService{
		Store:       app.db,
		Sessions:    app.sessions,
		Activity:    app.activityService,
		MFA:         app.mfaService,
		Enforcement: enforcement,
	}
	app.resetService = &service.ResetService{
		Store:    app.db,
		Mailer:   app.mailer,
		Activity: app.activityService,
		BaseURL:  app.cfg.BaseURL,
	}
	app.userService = &service.UserService{Store: app.db, Activity: app.activityService}
	app.projectService = &service.ProjectService{
		Store:    app.db,
		Files:    app.files,
		Activity: app.activityService,
	}
	app.categoryService = &service.CategoryService{Store: app.db, Activity: app.activityService}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) bootstrap() error {
	boot := &service.BootstrapService{
		Store:         app.db,
		AdminUsername: app.cfg.AdminUsername,
		AdminEmail:    app.cfg.AdminEmail,
		AdminPassword: app.cfg.AdminPassword,
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := boot.Run(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger, app.cfg.SecureCookies)

	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.ResetService = app.resetService
	router.UserService = app.userService
	router.ProjectService = app.projectService
	router.CategoryService = app.categoryService
	router.ActivityService = app.activityService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
