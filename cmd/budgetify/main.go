package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"budgetify/internal/amqp"
	"budgetify/internal/buildinfo"
	"budgetify/internal/cli"
	"budgetify/internal/config"
	apphttp "budgetify/internal/http"
	"budgetify/internal/log"
	"budgetify/internal/services"
	"budgetify/internal/speech"
	"budgetify/internal/telegram"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig((*config.Config).ValidateBot)
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	logger.Info("Starting budgetify", "version", buildinfo.String())

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// AMQP is optional: without it the worker picks expenses up on its
	// periodic sweep.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic sync", log.FieldError, err)
		} else {
			publisher = client.WithLogger(logger)
		}
	}

	expenses := services.NewExpenseService(repo, publisher, services.WithLogger(logger))
	defer func() {
		if err := expenses.Close(); err != nil {
			logger.Error("Failed to close resources", log.FieldError, err)
		}
	}()

	recognizer, err := speech.NewFromCredentials(cfg.SpeechKitAPIKey, cfg.SpeechKitKeyFile, speech.Options{
		FolderID: cfg.SpeechKitFolderID,
		Lang:     cfg.SpeechKitLang,
	})
	if err != nil {
		logger.Error("Failed to initialize SpeechKit", log.FieldError, err)
		os.Exit(1)
	}

	botDeps := telegram.Deps{
		Expenses:   expenses,
		Recognizer: recognizer,
		Logger:     logger,
	}
	httpDeps := apphttp.Deps{DB: repo, Logger: logger}
	if oauth := cli.NewOAuth(cfg); oauth != nil {
		botDeps.Auth, botDeps.Tokens = oauth, repo
		httpDeps.OAuth, httpDeps.Tokens = oauth, repo
		logger.Info("Yandex.Disk upload enabled", "folder", cfg.DiskAppFolder)
	} else {
		logger.Info("Yandex.Disk upload disabled - no OAuth client configured")
	}

	b, err := telegram.New(telegram.Config{
		Token:              cfg.TelegramToken,
		Debug:              cfg.LogLevel == "debug",
		VoiceRatePerMinute: cfg.VoiceRatePerMinute,
	}, botDeps)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", log.FieldError, err)
		os.Exit(1)
	}
	defer b.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, httpDeps)

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cli.IgnoreCanceled(b.Start(gctx))
	})
	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped gracefully")
}
