// Package main provides the companion server binary that serves the
// companion gRPC service over either PostgreSQL or in-memory storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/gameserver"
	"github.com/cory-johannsen/mythic/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := run(context.Background(), cfg, start); err != nil {
		log.Printf("companion server: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, start time.Time) error {
	var (
		app     *App
		cleanup func()
		err     error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		app, cleanup, err = initMemoryApp(cfg)
	default:
		app, cleanup, err = initPostgresApp(ctx, cfg)
	}
	if err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}
	defer cleanup()
	logger := app.Logger

	logger.Info("starting companion server",
		zap.String("grpc_addr", cfg.GRPC.Addr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.GRPC.Addr(), err)
			}
			logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
			return app.Server.Serve(lis)
		},
		StopFn: func() {
			app.Health.Shutdown()
			app.Server.GracefulStop()
		},
	})
	if app.Pool != nil {
		done := make(chan struct{})
		lifecycle.Add("db-health", &server.FuncService{
			StartFn: func() error {
				watchDatabase(app, done)
				return nil
			},
			StopFn: func() { close(done) },
		})
	}

	logger.Info("companion server ready", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	return nil
}

// watchDatabase pings the database every health interval and reflects the
// result in the gRPC health status until done is closed.
func watchDatabase(app *App, done <-chan struct{}) {
	interval := app.Config.GRPC.HealthInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		err := app.Pool.Health(context.Background(), 5*time.Second)
		switch {
		case err != nil && serving:
			app.Logger.Warn("database health check failed", zap.Error(err))
			app.Health.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			serving = false
		case err == nil && !serving:
			app.Logger.Info("database reachable again")
			app.Health.SetServingStatus(gameserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
			serving = true
		}
	}
}
