package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"budgetify/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func expense(userID int64, at time.Time, kopecks int64, category string) core.Expense {
	return core.Expense{
		UserID:     userID,
		Date:       at,
		Amount:     core.Money{Kopecks: kopecks},
		Category:   category,
		Source:     core.SourceVoice,
		Transcript: category,
	}
}

func TestAppendAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	id, err := repo.Append(ctx, expense(42, at, 75042, "подушка"))
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.GetExpense(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, SyncPending, got.SyncStatus)
	assert.Equal(t, int64(42), got.Expense.UserID)
	assert.Equal(t, int64(75042), got.Expense.Amount.Kopecks)
	assert.Equal(t, "подушка", got.Expense.Category)
	assert.Equal(t, core.SourceVoice, got.Expense.Source)
	assert.True(t, at.Equal(got.Expense.Date))
	assert.True(t, got.SyncedAt.IsZero())
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Append(context.Background(), expense(42, time.Now(), 100, " "))
	require.ErrorIs(t, err, core.ErrEmptyCategory)
}

func TestGetExpenseNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetExpense(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	first, err := repo.Append(ctx, expense(1, now.Add(-2*time.Hour), 100, "кофе"))
	require.NoError(t, err)
	second, err := repo.Append(ctx, expense(2, now.Add(-time.Hour), 200, "чай"))
	require.NoError(t, err)

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].ID)
	assert.Equal(t, int64(2), pending[1].UserID)

	limited, err := repo.GetPendingSyncExpenses(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.MarkSynced(ctx, first))
	require.NoError(t, repo.MarkSyncError(ctx, second))

	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := repo.GetExpense(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, SyncSynced, got.SyncStatus)
	assert.True(t, now.Equal(got.SyncedAt))

	got, err = repo.GetExpense(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, SyncError, got.SyncStatus)

	assert.ErrorIs(t, repo.MarkSynced(ctx, 12345), ErrNotFound)

	n, err := repo.RetryFailedSyncs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].ID)
}

func TestReadMonthOverview(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	march := func(day int) time.Time { return time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC) }

	for _, e := range []core.Expense{
		expense(7, march(1), 100000, "такси"),
		expense(7, march(2), 50000, "такси"),
		expense(7, march(3), 75042, "подушка"),
		expense(7, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 999, "апрель"),
		expense(8, march(3), 123, "чужое"),
	} {
		_, err := repo.Append(ctx, e)
		require.NoError(t, err)
	}

	ov, err := repo.ReadMonthOverview(ctx, 7, 2024, 3, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(225042), ov.Total.Kopecks)
	require.Len(t, ov.ByCategory, 2)
	assert.Equal(t, "такси", ov.ByCategory[0].Name)
	assert.Equal(t, int64(150000), ov.ByCategory[0].Amount.Kopecks)
	assert.Equal(t, 2, ov.ByCategory[0].Count)
	assert.Equal(t, "подушка", ov.ByCategory[1].Name)

	list, err := repo.ListExpenses(ctx, 7, 2024, 3, time.UTC)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "подушка", list[2].Category)

	empty, err := repo.ReadMonthOverview(ctx, 7, 2023, 1, nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	_, err = repo.ReadMonthOverview(ctx, 7, 2024, 13, time.UTC)
	assert.Error(t, err)
}

func TestReadMonthOverviewUsesLocation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	msk := time.FixedZone("MSK", 3*60*60)

	// 1 April 01:00 in Moscow is still 31 March in UTC.
	_, err := repo.Append(ctx, expense(7, time.Date(2024, 4, 1, 1, 0, 0, 0, msk), 50000, "кофе"))
	require.NoError(t, err)

	april, err := repo.ReadMonthOverview(ctx, 7, 2024, 4, msk)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), april.Total.Kopecks)

	march, err := repo.ReadMonthOverview(ctx, 7, 2024, 3, msk)
	require.NoError(t, err)
	assert.True(t, march.Empty())

	utcMarch, err := repo.ReadMonthOverview(ctx, 7, 2024, 3, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), utcMarch.Total.Kopecks)

	list, err := repo.ListExpenses(ctx, 7, 2024, 4, msk)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "кофе", list[0].Category)
}

func TestTokens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ok, err := repo.IsAuthenticated(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Token(ctx, 5)
	require.ErrorIs(t, err, ErrNotFound)

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveToken(ctx, 5, &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		Expiry:       expiry,
	}))

	tok, err := repo.Token(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))

	require.NoError(t, repo.SaveToken(ctx, 5, &oauth2.Token{AccessToken: "access-2"}))
	tok, err = repo.Token(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)
	assert.True(t, tok.Expiry.IsZero())

	ok, err = repo.IsAuthenticated(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.DeleteToken(ctx, 5))
	ok, err = repo.IsAuthenticated(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, repo.SaveToken(ctx, 5, &oauth2.Token{}))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
