// Package cli holds the startup steps shared by cmd/budgetify and
// cmd/budgetify-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetify/internal/config"
	"budgetify/internal/disk"
	"budgetify/internal/log"
	"budgetify/internal/sheets"
	gsheet "budgetify/internal/sheets/google"
	mem "budgetify/internal/sheets/memory"
	"budgetify/internal/sheets/xlsx"
	"budgetify/internal/storage"
)

// ShutdownTimeout bounds the graceful stop of servers and consumers.
const ShutdownTimeout = 30 * time.Second

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from the configuration and installs
// it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	lc.Format = cfg.LogFormat
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = lvl
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads the configuration and runs validate on it, or exits the
// process on failure.
func LoadConfig(validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the repository and applies migrations, or exits the
// process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// NewWriter returns the spreadsheet writer for cfg.DataBackend.
func NewWriter(ctx context.Context, cfg *config.Config) (sheets.ExpenseWriter, error) {
	switch cfg.DataBackend {
	case config.BackendXLSX:
		w, err := xlsx.New(cfg.WorkbookDir, time.Local)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.BackendSheets:
		w, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			Location:        time.Local,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.BackendMemory:
		return mem.New(), nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// NewOAuth returns the Yandex OAuth helper, or nil when Disk is not
// configured.
func NewOAuth(cfg *config.Config) *disk.OAuth {
	if !cfg.DiskEnabled() {
		return nil
	}
	return disk.NewOAuth(cfg.YandexClientID, cfg.YandexClientSecret, cfg.YandexRedirectURL)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// IgnoreCanceled drops the error a component returns when it stops because
// its context was cancelled.
func IgnoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
