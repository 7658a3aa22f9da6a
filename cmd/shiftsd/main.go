package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/shifts-tracker/internal/async"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/export"
	"github.com/joseph-ayodele/shifts-tracker/internal/ingest"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
	"github.com/joseph-ayodele/shifts-tracker/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("shiftsd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	db, err := server.ConnectDB(ctx, cfg.Database, logger, 5*time.Second)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	shiftsRepo := repository.NewShiftRepository(db, logger)
	jobsRepo := repository.NewImportJobRepository(db, logger)

	importer, closeImporter, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer closeImporter()

	store := ingest.NewService(importer, shiftsRepo, jobsRepo,
		ingest.WithLogger(logger),
		ingest.WithEmployee(ingest.EmployeeFromConfig(cfg.Ingest)),
	)

	queue := async.NewImportQueue(store, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.ProcessLimit),
	)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(drainCtx)
	}()

	if len(cfg.Ingest.InboxDirs) > 0 {
		if err := watchInbox(ctx, cfg.Ingest, queue, logger); err != nil {
			return err
		}
	}

	svc := server.NewImportService(importer, store, shiftsRepo, jobsRepo, export.NewService(shiftsRepo, logger), logger)
	grpcServer, healthServer := server.New(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("shiftsd listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		return err
	}
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	return nil
}

// watchInbox enqueues every importable file dropped into the inbox folders.
func watchInbox(ctx context.Context, cfg common.IngestConfig, queue async.Queue, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.InboxDirs,
		InitialScan: true,
		Debounce:    cfg.Debounce,
		SkipHidden:  true,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case path, ok := <-events:
				if !ok {
					return
				}
				if err := queue.Enqueue(ctx, async.Job{Path: path}); err != nil {
					logger.Warn("inbox file not queued", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox watcher error", "error", err)
			}
		}
	}()
	return nil
}
