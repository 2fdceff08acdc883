// Package worker writes stored expenses to the configured spreadsheet and
// copies per-user workbooks to Yandex.Disk.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetify/internal/amqp"
	"budgetify/internal/core"
	"budgetify/internal/log"
	"budgetify/internal/sheets"
	"budgetify/internal/storage"
)

// ExpenseRepository is the part of storage the worker needs.
type ExpenseRepository interface {
	GetExpense(ctx context.Context, id int64) (*storage.StoredExpense, error)
	GetPendingSyncExpenses(ctx context.Context, limit int) ([]storage.PendingSyncExpense, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
	RetryFailedSyncs(ctx context.Context) (int64, error)
	IsAuthenticated(ctx context.Context, userID int64) (bool, error)
}

// WorkbookUploader copies a local workbook to the user's remote storage.
type WorkbookUploader interface {
	UploadWorkbook(ctx context.Context, userID int64, localPath string) error
	RemotePath(userID int64) string
}

// SyncWorker handles synchronization of expenses from SQLite to the
// spreadsheet backend.
type SyncWorker struct {
	storage   ExpenseRepository
	sheets    sheets.ExpenseWriter
	uploader  WorkbookUploader
	batchSize int
	logger    *log.Logger
}

// NewSyncWorker returns a worker. uploader may be nil; it is only used when
// the writer also implements sheets.WorkbookSource.
func NewSyncWorker(repo ExpenseRepository, writer sheets.ExpenseWriter, uploader WorkbookUploader, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		storage:   repo,
		sheets:    writer,
		uploader:  uploader,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP.
// A message for a missing or already synced expense is acknowledged without
// writing anything.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	w.logger.DebugContext(ctx, "Processing sync message",
		log.FieldExpenseID, msg.ExpenseID,
		"message_id", msg.MessageID)

	stored, err := w.storage.GetExpense(ctx, msg.ExpenseID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Sync message for unknown expense", log.FieldExpenseID, msg.ExpenseID)
		syncsProcessed.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	if stored.SyncStatus == storage.SyncSynced {
		syncsProcessed.WithLabelValues("skipped").Inc()
		return nil
	}

	return w.syncExpense(ctx, stored.ID, stored.Expense)
}

// ProcessPendingExpenses syncs up to one batch of pending expenses.
// It is the fallback for lost AMQP messages.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck gives failed expenses another chance and syncs a larger
// batch of pending ones, to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if n, err := w.storage.RetryFailedSyncs(ctx); err != nil {
		w.logger.WarnContext(ctx, "Failed to reset sync errors", log.FieldError, err)
	} else if n > 0 {
		w.logger.InfoContext(ctx, "Retrying expenses with sync errors", "count", n)
	}

	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		log.FieldOperation, log.OpStartup,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		stored, err := w.storage.GetExpense(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to get expense", log.FieldExpenseID, p.ID, log.FieldError, err)
			w.markError(ctx, p.ID)
			failed++
			continue
		}
		if err := w.syncExpense(ctx, p.ID, stored.Expense); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync expense", log.FieldExpenseID, p.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// Run sweeps pending expenses every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingExpenses(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) syncExpense(ctx context.Context, id int64, e core.Expense) error {
	start := time.Now()
	ref, err := w.sheets.Append(ctx, e)
	syncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		syncsProcessed.WithLabelValues("error").Inc()
		w.markError(ctx, id)
		return fmt.Errorf("append to spreadsheet: %w", err)
	}

	// The row is written; an upload failure only delays the remote copy
	// until the user's next expense.
	w.uploadWorkbook(ctx, e.UserID)

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldExpenseID, id, log.FieldError, err)
	}
	syncsProcessed.WithLabelValues("synced").Inc()

	w.logger.InfoContext(ctx, "Synced expense",
		log.NewFields().
			WithOperation(log.OpSync).
			WithExpense(e.Category, e.Amount.Kopecks, e.SourceLabel()).
			ToSlice()...)
	w.logger.DebugContext(ctx, "Spreadsheet row written", log.FieldExpenseID, id, log.FieldRowRef, ref)
	return nil
}

func (w *SyncWorker) uploadWorkbook(ctx context.Context, userID int64) {
	src, ok := w.sheets.(sheets.WorkbookSource)
	if !ok || w.uploader == nil {
		return
	}
	path, exists := src.WorkbookPath(userID)
	if !exists {
		return
	}

	authed, err := w.storage.IsAuthenticated(ctx, userID)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to check Disk authorization", log.FieldUserID, userID, log.FieldError, err)
		uploadsProcessed.WithLabelValues("error").Inc()
		return
	}
	if !authed {
		uploadsProcessed.WithLabelValues("no_token").Inc()
		return
	}

	if err := w.uploader.UploadWorkbook(ctx, userID, path); err != nil {
		w.logger.ErrorContext(ctx, "Failed to upload workbook",
			log.FieldUserID, userID,
			log.FieldRemotePath, w.uploader.RemotePath(userID),
			log.FieldError, err)
		uploadsProcessed.WithLabelValues("error").Inc()
		return
	}
	uploadsProcessed.WithLabelValues("ok").Inc()
	w.logger.InfoContext(ctx, "Workbook uploaded",
		log.FieldOperation, log.OpUpload,
		log.FieldUserID, userID,
		log.FieldRemotePath, w.uploader.RemotePath(userID))
}

func (w *SyncWorker) markError(ctx context.Context, id int64) {
	if err := w.storage.MarkSyncError(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldExpenseID, id, log.FieldError, err)
	}
}
