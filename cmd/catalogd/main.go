package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/catalog-importer/internal/async"
	"github.com/joseph-ayodele/catalog-importer/internal/bootstrap"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/export"
	"github.com/joseph-ayodele/catalog-importer/internal/importer"
	"github.com/joseph-ayodele/catalog-importer/internal/ingest"
	"github.com/joseph-ayodele/catalog-importer/internal/pipeline"
	"github.com/joseph-ayodele/catalog-importer/internal/repository"
	"github.com/joseph-ayodele/catalog-importer/internal/server"
	"github.com/joseph-ayodele/catalog-importer/internal/services/extraction"
)

const shutdownGrace = 30 * time.Second

func main() {
	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("catalogd stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("catalogd stopped")
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	catalog, err := repository.Open(ctx, bootstrap.RepositoryConfig(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer catalog.Close()
	if err := catalog.HealthCheck(ctx, 5*time.Second); err != nil {
		return err
	}
	if err := catalog.Migrate(ctx); err != nil {
		return err
	}

	jobs, closeJobs, err := bootstrap.NewJobStore(ctx, cfg.Jobs, logger)
	if err != nil {
		return err
	}
	defer closeJobs()

	provider, closeProvider, err := bootstrap.NewProvider(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	routes, err := bootstrap.NewRoutes(cfg, provider, logger)
	if err != nil {
		return err
	}

	orchestrator := pipeline.NewOrchestrator(jobs, routes, logger)
	queue := async.NewWorkerQueue(orchestrator, logger,
		async.WithWorkers(cfg.Extraction.Workers),
		async.WithQueueSize(cfg.Extraction.QueueSize),
	)
	orchestrator.AttachQueue(queue)

	mapper := importer.NewMapper(orchestrator, catalog, cfg.Extraction.DefaultUnit, logger)
	svc := extraction.NewService(
		orchestrator,
		ingest.NewFSIngestor(cfg.Server.UploadDir, cfg.Server.MaxUploadBytes, logger),
		catalog,
		mapper,
		export.NewService(orchestrator, logger),
		logger,
	)

	handlers := server.NewHandlers(svc, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Health: func(ctx context.Context) error {
			return catalog.HealthCheck(ctx, 2*time.Second)
		},
	}, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handlers.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health service for orchestrators that probe over gRPC
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCHealthAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		queue.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return nil
	})
	return g.Wait()
}
