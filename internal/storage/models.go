package storage

import "database/sql"

// Sync states of an expense row.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// Expense is one row of the expenses table. Times are unix seconds (UTC).
type Expense struct {
	ID            int64
	UserID        int64
	CreatedAt     int64
	AmountKopecks int64
	Category      string
	Source        string
	Transcript    string
	SyncStatus    string
	SyncedAt      sql.NullInt64
}

// OauthToken is one row of the oauth_tokens table.
type OauthToken struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       sql.NullInt64
	UpdatedAt    int64
}

// CategorySum is one line of a per-category aggregate.
type CategorySum struct {
	Category    string
	TotalAmount int64
	Count       int64
}
