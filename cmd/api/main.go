package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/api"
	"github.com/startup-roles/backend/internal/bootstrap"
	"github.com/startup-roles/backend/internal/config"
	"github.com/startup-roles/backend/internal/grpcserver"
	"github.com/startup-roles/backend/internal/scheduler"
	"github.com/startup-roles/backend/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Server.Debug)
	defer logger.Sync()

	logger.Info("Starting Startup Roles API",
		zap.Bool("debug", cfg.Server.Debug),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger.Get(), bootstrap.Options{})
	if err != nil {
		logger.Fatal("Failed to initialize pipeline", zap.Error(err))
	}
	defer components.Close()

	app := api.NewApp(cfg, &api.Dependencies{
		DB:      components.Store,
		Catalog: components.Store,
		Scrape:  components.Jobs,
		Metrics: components.Metrics,
	})

	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.Error(err))
		}
		health := grpcserver.New(components.Store, 0, logger.Named("grpc"))
		go func() {
			if err := health.Serve(ctx, lis); err != nil {
				logger.Error("gRPC server stopped", zap.Error(err))
			}
		}()
		defer health.Stop()
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(scheduler.Config{
			ScrapeSpec:  cfg.Scheduler.ScrapeSpec,
			CleanupSpec: cfg.Scheduler.CleanupSpec,
			RunOnStart:  cfg.Scheduler.RunOnStart,
		}, components.Jobs, components.Cleaner, logger.Named("scheduler"))
		if err := sched.Start(ctx); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gracefully...")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting",
		zap.String("address", addr),
		zap.Int("extractors", len(components.Extractors)),
	)

	if err := app.Listen(addr); err != nil {
		logger.Error("Server failed", zap.Error(err))
	}
}
