package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetify/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// StoredExpense is an expense together with its row metadata.
type StoredExpense struct {
	ID         int64
	Expense    core.Expense
	SyncStatus string
	SyncedAt   time.Time
}

// PendingSyncExpense represents minimal data needed for sync queue messages
type PendingSyncExpense struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

// Append stores a validated expense and returns its id.
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		UserID:        e.UserID,
		CreatedAt:     e.Date.UTC().Unix(),
		AmountKopecks: e.Amount.Kopecks,
		Category:      e.Category,
		Source:        e.SourceLabel(),
		Transcript:    e.Transcript,
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"category", row.Category,
		"amount_kopecks", row.AmountKopecks)

	return row.ID, nil
}

// GetExpense retrieves a single expense by ID
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*StoredExpense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense by id: %w", err)
	}
	se := &StoredExpense{
		ID:         row.ID,
		Expense:    toCore(row),
		SyncStatus: row.SyncStatus,
	}
	if row.SyncedAt.Valid {
		se.SyncedAt = time.Unix(row.SyncedAt.Int64, 0).UTC()
	}
	return se, nil
}

// GetPendingSyncExpenses returns up to limit expenses not yet written to
// the spreadsheet, oldest first.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.queries.GetPendingSyncExpenses(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}

	out := make([]PendingSyncExpense, len(rows))
	for i, e := range rows {
		out[i] = PendingSyncExpense{
			ID:        e.ID,
			UserID:    e.UserID,
			CreatedAt: time.Unix(e.CreatedAt, 0).UTC(),
		}
	}
	return out, nil
}

// MarkSynced marks an expense as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	n, err := r.queries.MarkExpenseSynced(ctx, r.now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark expense %d synced: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an expense as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	n, err := r.queries.MarkExpenseSyncError(ctx, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark expense %d sync error: %w", id, ErrNotFound)
	}

	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

// RetryFailedSyncs moves every expense in sync error back to pending and
// returns how many were reset.
func (r *SQLiteRepository) RetryFailedSyncs(ctx context.Context) (int64, error) {
	n, err := r.queries.RetryFailedSyncs(ctx)
	if err != nil {
		return 0, fmt.Errorf("retry failed syncs: %w", err)
	}
	return n, nil
}

// ReadMonthOverview returns one user's totals for a calendar month in loc,
// largest category first. A nil loc means UTC.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, userID int64, year, month int, loc *time.Location) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}
	from, to, err := monthBounds(year, month, loc)
	if err != nil {
		return overview, err
	}

	sums, err := r.queries.GetCategorySums(ctx, ListUserExpensesBetweenParams{UserID: userID, From: from, To: to})
	if err != nil {
		return overview, fmt.Errorf("get category sums: %w", err)
	}

	for _, cs := range sums {
		overview.Total = overview.Total.Add(core.Money{Kopecks: cs.TotalAmount})
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   cs.Category,
			Amount: core.Money{Kopecks: cs.TotalAmount},
			Count:  int(cs.Count),
		})
	}
	return overview, nil
}

// ListExpenses returns one user's expenses for a calendar month in loc in
// the order they were recorded.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, year, month int, loc *time.Location) ([]core.Expense, error) {
	from, to, err := monthBounds(year, month, loc)
	if err != nil {
		return nil, err
	}
	rows, err := r.queries.ListUserExpensesBetween(ctx, ListUserExpensesBetweenParams{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("get expenses by month: %w", err)
	}

	expenses := make([]core.Expense, len(rows))
	for i, e := range rows {
		expenses[i] = toCore(e)
	}
	return expenses, nil
}

func toCore(e Expense) core.Expense {
	return core.Expense{
		UserID:     e.UserID,
		Date:       time.Unix(e.CreatedAt, 0).UTC(),
		Amount:     core.Money{Kopecks: e.AmountKopecks},
		Category:   e.Category,
		Source:     core.Source(e.Source),
		Transcript: e.Transcript,
	}
}

// monthBounds returns [first second of month, first second of next month)
// as unix seconds, with the month boundaries taken in loc.
func monthBounds(year, month int, loc *time.Location) (int64, int64, error) {
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month: %d", month)
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start.Unix(), start.AddDate(0, 1, 0).Unix(), nil
}
