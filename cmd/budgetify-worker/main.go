package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"budgetify/internal/amqp"
	"budgetify/internal/buildinfo"
	"budgetify/internal/cli"
	"budgetify/internal/config"
	"budgetify/internal/disk"
	"budgetify/internal/log"
	"budgetify/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting budgetify-worker", "version", buildinfo.String(), "backend", cfg.DataBackend)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	writer, err := cli.NewWriter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var uploader worker.WorkbookUploader
	if oauth := cli.NewOAuth(cfg); oauth != nil {
		uploader = disk.NewUploader(oauth, disk.NewClient("", nil), repo, cfg.DiskAppFolder)
		logger.Info("Yandex.Disk upload enabled", "folder", cfg.DiskAppFolder)
	}

	syncWorker := worker.NewSyncWorker(repo, writer, uploader, cfg.SyncBatchSize, logger)

	// Process anything left over from a previous run, including expenses
	// whose last attempt failed.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
		// Don't exit - the periodic sweep retries
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic sync", log.FieldError, err)
		} else {
			amqpClient.WithLogger(logger)
			defer amqpClient.Close()
			g.Go(func() error {
				return cli.IgnoreCanceled(amqpClient.ConsumeWithReconnect(gctx, syncWorker.HandleSyncMessage))
			})
		}
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	g.Go(func() error {
		return cli.IgnoreCanceled(syncWorker.Run(gctx, cfg.SyncInterval))
	})

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
