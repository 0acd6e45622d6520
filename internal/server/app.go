// Package server wires the skill together: storage, providers, the dialog
// machine and the webhook HTTP server. It handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/ermil/internal/cryptox"
	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/dmitrijs2005/ermil/internal/server/config"
	"github.com/dmitrijs2005/ermil/internal/server/dialog"
	"github.com/dmitrijs2005/ermil/internal/server/metrics"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/dmitrijs2005/ermil/internal/server/providers/dialogs"
	"github.com/dmitrijs2005/ermil/internal/server/providers/s3images"
	"github.com/dmitrijs2005/ermil/internal/server/providers/staticmap"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ermil/internal/server/services"
	"github.com/dmitrijs2005/ermil/internal/server/sessions"
	"github.com/dmitrijs2005/ermil/internal/server/webhook"
	_ "github.com/jackc/pgx/v5/stdlib"
	backend "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	store   sessions.Store
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()
	caller := providers.Caller{
		Timeout:  c.ProviderTimeout,
		Retries:  c.ProviderRetries,
		Observer: m,
		Logger:   logger.With("module", "providers"),
	}
	httpClient := &http.Client{}

	host, err := newImageHost(ctx, c, httpClient, caller)
	if err != nil {
		db.Close()
		return nil, err
	}
	renderer := staticmap.NewClient(c.StaticMapsURL, httpClient, caller)

	store, err := newSessionStore(c)
	if err != nil {
		db.Close()
		return nil, err
	}

	authService := services.NewAuthService(db, rm, c, logger)
	markerService := services.NewMarkerService(db, rm, renderer, host, c, m, logger)

	machine := dialog.NewMachine(authService, markerService, logger)
	h := webhook.NewHandler(machine, sessions.NewManager(store), m, logger)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		store:   store,
		handler: webhook.NewRouter(h, m.Handler(), logger),
	}, nil
}

func newImageHost(ctx context.Context, c *config.Config, httpClient *http.Client, caller providers.Caller) (services.ImageHost, error) {
	switch c.ImageBackend {
	case config.ImageBackendDialogs:
		return dialogs.NewClient(c.DialogsBaseURL, c.SkillID, c.OAuthToken, httpClient, caller), nil
	case config.ImageBackendS3:
		host, err := s3images.NewHost(ctx, s3images.Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		}, caller)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return host, nil
	default:
		return nil, fmt.Errorf("unknown image backend %q", c.ImageBackend)
	}
}

func newSessionStore(c *config.Config) (sessions.Store, error) {
	if c.RedisAddr == "" {
		return sessions.NewMemoryStore(c.SessionTTL), nil
	}

	sealer, err := cryptox.NewSealer(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("session sealer error: %w", err)
	}
	client := backend.NewClient(&backend.Options{Addr: c.RedisAddr})
	return sessions.NewRedisStore(client, sealer, c.SessionTTL), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context) {
	mem, ok := app.store.(*sessions.MemoryStore)
	if !ok {
		return
	}
	mem.RunSweeper(ctx, sweepInterval, func(removed int) {
		app.logger.Debug(ctx, "sessions swept", "removed", removed, "left", mem.Len())
	})
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "Stopped")
}

func (app *App) close() {
	if rs, ok := app.store.(*sessions.RedisStore); ok {
		if err := rs.Close(); err != nil {
			app.logger.Error(context.Background(), "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
}
