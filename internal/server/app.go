// Package server wires configuration, storage, the auth service and both
// network endpoints (REST over gin, gRPC health) and runs them until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/courseauth/internal/admin"
	"github.com/dmitrijs2005/courseauth/internal/logging"
	"github.com/dmitrijs2005/courseauth/internal/server/auth"
	"github.com/dmitrijs2005/courseauth/internal/server/config"
	"github.com/dmitrijs2005/courseauth/internal/server/httpapi"
	"github.com/dmitrijs2005/courseauth/internal/server/notify"
	"github.com/dmitrijs2005/courseauth/internal/server/password"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/courseauth/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/courseauth/internal/server/grpc"
)

// Test seams.
var (
	openPostgres  = repomanager.OpenPostgres
	buildNotifier = newNotifier
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	manager     repomanager.RepositoryManager
	hasher      *password.Hasher
	authService *services.AuthService
	grpcServer  *gs.GRPCServer
	httpServer  *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	var (
		db      *sql.DB
		manager repomanager.RepositoryManager
	)
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, using in-memory storage")
		manager = repomanager.NewMemoryRepositoryManager()
	} else {
		db, err = openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		defer func() {
			if err != nil {
				err = errors.Join(err, db.Close())
			}
		}()
		manager = repomanager.NewPostgresRepositoryManager()
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.SigningAlgorithm)
	if err != nil {
		return nil, err
	}

	renderer, err := notify.NewRenderer(c.ProjectName, c.FrontendHost, c.ResetTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	hasher := password.NewHasher(c.BcryptCost)
	svc := services.NewAuthService(db, manager, c, services.AuthDeps{
		Codec:    codec,
		Hasher:   hasher,
		Renderer: renderer,
		Notifier: notifier,
		Logger:   logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.NewHandler(svc, logger))

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		manager:     manager,
		hasher:      hasher,
		authService: svc,
		grpcServer:  gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
		httpServer:  httpapi.NewServer(c.EndpointAddrHTTP, router, logger),
	}, nil
}

func newNotifier(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Notifier, error) {
	if c.S3Bucket == "" {
		return notify.NewLogNotifier(logger), nil
	}
	return notify.NewS3Outbox(ctx, notify.S3Settings{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// prepare migrates the schema and bootstraps the first superuser.
func (app *App) prepare(ctx context.Context) error {
	if err := app.manager.RunMigrations(ctx, app.db); err != nil {
		return err
	}

	if app.config.FirstSuperuser != "" {
		created, err := admin.EnsureSuperuser(ctx, app.db, app.manager, app.hasher,
			app.config.FirstSuperuser, app.config.FirstSuperuserPassword)
		if err != nil {
			return err
		}
		if created {
			app.logger.Info(ctx, "first superuser created", "email", app.config.FirstSuperuser)
		}
	}
	return nil
}

func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, name+" server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.prepare(ctx); err != nil {
		return errors.Join(err, app.close())
	}
	app.grpcServer.SetServing(true)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "gRPC", app.grpcServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "HTTP", app.httpServer.Run)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
	return app.close()
}

func (app *App) close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
