package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/content"
	"github.com/cory-johannsen/mythic/internal/game/dice"
	"github.com/cory-johannsen/mythic/internal/gameserver"
	"github.com/cory-johannsen/mythic/internal/observability"
	"github.com/cory-johannsen/mythic/internal/scripting"
	"github.com/cory-johannsen/mythic/internal/storage/postgres"
)

// App is the assembled server.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Server *grpc.Server
	Health *health.Server
	// Pool is nil when running on the memory driver.
	Pool *postgres.Pool
}

func newApp(cfg config.Config, logger *zap.Logger, srv *grpc.Server, hs *health.Server) *App {
	return &App{Config: cfg, Logger: logger, Server: srv, Health: hs}
}

func newPostgresApp(cfg config.Config, logger *zap.Logger, srv *grpc.Server, hs *health.Server, pool *postgres.Pool) *App {
	app := newApp(cfg, logger, srv, hs)
	app.Pool = pool
	return app
}

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideRoller(logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
}

func provideClock() gameserver.Clock {
	return gameserver.SystemClock{}
}

func provideHandlerConfig(cfg config.Config) gameserver.HandlerConfig {
	return gameserver.HandlerConfig{QuizQuestionCount: cfg.Gameplay.QuizQuestionCount}
}

// provideScripts loads one reaction VM per species directory under the
// configured scripts root.
func provideScripts(cfg config.Config, roller *dice.Roller, logger *zap.Logger) (*scripting.Manager, func(), error) {
	start := time.Now()
	mgr := scripting.NewManager(roller, logger, cfg.Gameplay.ScriptInstructionLimit)
	if cfg.Content.ScriptsDir == "" {
		logger.Info("scripting disabled")
		return mgr, mgr.Close, nil
	}
	n, err := mgr.LoadTree(cfg.Content.ScriptsDir)
	if err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("loading scripts: %w", err)
	}
	logger.Info("scripts loaded",
		zap.Int("vms", n),
		zap.Strings("keys", mgr.Keys()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return mgr, mgr.Close, nil
}

func provideFileCatalog(cfg config.Config, logger *zap.Logger) (*content.Catalog, error) {
	start := time.Now()
	cat, err := content.Load(cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	logCatalog(logger, "content loaded from files", cat, start)
	return cat, nil
}

func providePool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Pool, func(), error) {
	start := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pool, pool.Close, nil
}

// provideDBCatalog reads the catalog mirrored by import-content.
func provideDBCatalog(ctx context.Context, pool *postgres.Pool, logger *zap.Logger) (*content.Catalog, error) {
	start := time.Now()
	cat, err := postgres.NewCatalogRepository(pool).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading content from database: %w", err)
	}
	if len(cat.AllSpecies()) == 0 {
		logger.Warn("database holds no species; run import-content")
	}
	logCatalog(logger, "content loaded from database", cat, start)
	return cat, nil
}

func logCatalog(logger *zap.Logger, msg string, cat *content.Catalog, start time.Time) {
	logger.Info(msg,
		zap.Int("species", len(cat.AllSpecies())),
		zap.Int("items", len(cat.AllItems())),
		zap.Int("questions", len(cat.AllQuestions())),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func provideGRPCServer(svc *gameserver.CompanionService, hs *health.Server, logger *zap.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(observability.UnaryLoggingInterceptor(logger)))
	gameserver.RegisterCompanionServiceServer(srv, svc)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

func provideHealth() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}
