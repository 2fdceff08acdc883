package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const expenseColumns = `id, user_id, created_at, amount_kopecks, category, source, transcript, sync_status, synced_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CreatedAt,
		&i.AmountKopecks,
		&i.Category,
		&i.Source,
		&i.Transcript,
		&i.SyncStatus,
		&i.SyncedAt,
	)
	return i, err
}

const createExpense = `INSERT INTO expenses (user_id, created_at, amount_kopecks, category, source, transcript)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	UserID        int64
	CreatedAt     int64
	AmountKopecks int64
	Category      string
	Source        string
	Transcript    string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.UserID,
		arg.CreatedAt,
		arg.AmountKopecks,
		arg.Category,
		arg.Source,
		arg.Transcript,
	)
	return scanExpense(row)
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const getPendingSyncExpenses = `SELECT ` + expenseColumns + ` FROM expenses
WHERE sync_status = 'pending'
ORDER BY created_at, id
LIMIT ?`

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, limit int64) ([]Expense, error) {
	return q.listExpenses(ctx, getPendingSyncExpenses, limit)
}

const listUserExpensesBetween = `SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ? AND created_at >= ? AND created_at < ?
ORDER BY created_at, id`

type ListUserExpensesBetweenParams struct {
	UserID int64
	From   int64
	To     int64
}

func (q *Queries) ListUserExpensesBetween(ctx context.Context, arg ListUserExpensesBetweenParams) ([]Expense, error) {
	return q.listExpenses(ctx, listUserExpensesBetween, arg.UserID, arg.From, arg.To)
}

func (q *Queries) listExpenses(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategorySums = `SELECT category, SUM(amount_kopecks) AS total_amount, COUNT(*) AS count
FROM expenses
WHERE user_id = ? AND created_at >= ? AND created_at < ?
GROUP BY category
ORDER BY total_amount DESC, category`

func (q *Queries) GetCategorySums(ctx context.Context, arg ListUserExpensesBetweenParams) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, arg.UserID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategorySum
	for rows.Next() {
		var i CategorySum
		if err := rows.Scan(&i.Category, &i.TotalAmount, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markExpenseSynced = `UPDATE expenses SET sync_status = 'synced', synced_at = ? WHERE id = ?`

func (q *Queries) MarkExpenseSynced(ctx context.Context, syncedAt, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExpenseSynced, syncedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markExpenseSyncError = `UPDATE expenses SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkExpenseSyncError(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markExpenseSyncError, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const retryFailedSyncs = `UPDATE expenses SET sync_status = 'pending' WHERE sync_status = 'error'`

func (q *Queries) RetryFailedSyncs(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, retryFailedSyncs)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertOauthToken = `INSERT INTO oauth_tokens (user_id, access_token, refresh_token, token_type, expiry, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    access_token  = excluded.access_token,
    refresh_token = excluded.refresh_token,
    token_type    = excluded.token_type,
    expiry        = excluded.expiry,
    updated_at    = excluded.updated_at`

func (q *Queries) UpsertOauthToken(ctx context.Context, arg OauthToken) error {
	_, err := q.db.ExecContext(ctx, upsertOauthToken,
		arg.UserID,
		arg.AccessToken,
		arg.RefreshToken,
		arg.TokenType,
		arg.Expiry,
		arg.UpdatedAt,
	)
	return err
}

const getOauthToken = `SELECT user_id, access_token, refresh_token, token_type, expiry, updated_at
FROM oauth_tokens WHERE user_id = ?`

func (q *Queries) GetOauthToken(ctx context.Context, userID int64) (OauthToken, error) {
	var i OauthToken
	err := q.db.QueryRowContext(ctx, getOauthToken, userID).Scan(
		&i.UserID,
		&i.AccessToken,
		&i.RefreshToken,
		&i.TokenType,
		&i.Expiry,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteOauthToken = `DELETE FROM oauth_tokens WHERE user_id = ?`

func (q *Queries) DeleteOauthToken(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteOauthToken, userID)
	return err
}
