// Package server wires configuration, storage, the authentication gate and
// the transports into a runnable application. The HTTP API, the gRPC server
// and the revocation reaper run side by side until the process is signalled
// or one of them fails.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/reaper"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gatekeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/gatekeeper/internal/server/http"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *hs.Server
	grpcServer *gs.GRPCServer
	reaper     *reaper.Reaper
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, rm, err := openStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	codec := auth.NewCodec([]byte(c.SecretKey), c.TokenValidityDuration)
	gate := services.NewGate(db, rm, codec, logger.With("module", "gate"))
	us := services.NewUserService(db, rm, codec)

	ts := services.NewTaskService(db, rm)

	router := hs.NewRouter(hs.NewHandler(us, ts, logger), gate, c.AllowedOrigins, logger)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: hs.NewServer(c.EndpointAddrHTTP, router, logger),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gate, us),
		reaper:     reaper.New(db, rm, codec.Validity(), c.ReaperPeriod, logger.With("module", "reaper")),
	}, nil
}

// openStorage returns in-memory repositories when no DSN is configured and
// a migrated PostgreSQL database otherwise.
func openStorage(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory storage")
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, rm, nil
}

// Run blocks until ctx is cancelled, SIGINT/SIGTERM arrives or a component
// fails, then stops the rest and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(ctx) })
	g.Go(func() error { return app.grpcServer.Run(ctx) })
	g.Go(func() error { return app.reaper.Run(ctx) })

	err := g.Wait()

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error(context.Background(), "closing database", "error", cerr)
		}
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
