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

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/doorman/internal/auth/http"
	"github.com/aussiebroadwan/doorman/internal/auth/lockout"
	"github.com/aussiebroadwan/doorman/internal/auth/revocation"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/metricsx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisClient *redis.Client
	revocations *revocation.List
	codec       *jwtx.HS256

	accountService      *service.AccountService
	tokenService        *service.TokenService
	resetService        *service.ResetService
	verificationService *service.VerificationService
	housekeeper         *service.Housekeeper

	server *http.Server
	router *httpapi.Router

	stopHousekeeping context.CancelFunc
}

// New creates an Application with all dependencies initialized. It fails
// when the signing secret is missing or the database cannot be opened; a
// misconfigured service must not come up at all.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "doorman",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	codec, err := jwtx.NewHS256(jwtx.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.Issuer,
		Leeway: cfg.JWTLeeway,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec (is AUTH_JWT_SECRET set?): %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initRevocations()
	app.initServices()

	metricsx.Init()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	hkCtx, cancel := context.WithCancel(context.Background())
	app.stopHousekeeping = cancel
	go app.housekeeper.Run(hkCtx)

	app.logger.Info("doorman starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down doorman...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.stopHousekeeping != nil {
		app.stopHousekeeping()
	}

	if err := app.redisClient.Close(); err != nil {
		app.logger.Error("error closing redis client", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("doorman stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initRevocations connects the redis-backed refresh-token revocation list.
// Connectivity is surfaced through /readyz rather than checked here: redis
// being briefly down at boot should not crash-loop the service.
func (app *Application) initRevocations() {
	app.redisClient = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	app.revocations = revocation.NewList(app.redisClient, app.cfg.RefreshTTL)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Codec:       app.codec,
		Store:       app.db,
		Revocations: app.revocations,
		Issuer:      app.cfg.Issuer,
		AccessTTL:   app.cfg.AccessTTL,
		RefreshTTL:  app.cfg.RefreshTTL,
	}

	notifier := &service.LogNotifier{Logger: app.logger}

	app.verificationService = &service.VerificationService{
		Store:    app.db,
		Notifier: notifier,
		Logger:   app.logger,
		BaseURL:  app.cfg.BaseURL,
		TTL:      app.cfg.VerificationTTL,
	}

	app.resetService = &service.ResetService{
		Store:       app.db,
		Revocations: app.revocations,
		Notifier:    notifier,
		Logger:      app.logger,
		BaseURL:     app.cfg.BaseURL,
		TTL:         app.cfg.ResetTTL,
	}

	app.accountService = &service.AccountService{
		Store:         app.db,
		Tokens:        app.tokenService,
		Verifications: app.verificationService,
		Lockout: lockout.Policy{
			Threshold: app.cfg.LockoutThreshold,
			Duration:  app.cfg.LockoutDuration,
		},
	}

	app.housekeeper = &service.Housekeeper{
		Store:          app.db,
		Logger:         app.logger,
		Interval:       app.cfg.HousekeepingInterval,
		AuditRetention: app.cfg.AuditRetention,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.revocations,
		app.logger,
	)

	router.AccountService = app.accountService
	router.TokenService = app.tokenService
	router.ResetService = app.resetService
	router.VerificationService = app.verificationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
