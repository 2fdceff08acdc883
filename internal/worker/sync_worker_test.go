package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"budgetify/internal/amqp"
	"budgetify/internal/core"
	"budgetify/internal/sheets/memory"
	"budgetify/internal/sheets/xlsx"
	"budgetify/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *storage.SQLiteRepository, userID int64, category string) int64 {
	t.Helper()
	id, err := repo.Append(context.Background(), core.Expense{
		UserID:   userID,
		Date:     time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		Amount:   core.Money{Kopecks: 25000},
		Category: category,
		Source:   core.SourceVoice,
	})
	require.NoError(t, err)
	return id
}

type flakyWriter struct {
	*memory.Store
	mu   sync.Mutex
	fail bool
}

func (f *flakyWriter) Append(ctx context.Context, e core.Expense) (string, error) {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return "", errors.New("quota exceeded")
	}
	return f.Store.Append(ctx, e)
}

func (f *flakyWriter) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

type fakeUploader struct {
	uploads map[int64]string
	err     error
}

func (f *fakeUploader) UploadWorkbook(_ context.Context, userID int64, localPath string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads[userID] = localPath
	return nil
}

func (f *fakeUploader) RemotePath(userID int64) string { return "app/test.xlsx" }

func status(t *testing.T, repo *storage.SQLiteRepository, id int64) string {
	t.Helper()
	got, err := repo.GetExpense(context.Background(), id)
	require.NoError(t, err)
	return got.SyncStatus
}

func TestHandleSyncMessage(t *testing.T) {
	repo := newRepo(t)
	writer := memory.New()
	w := NewSyncWorker(repo, writer, nil, 10, nil)
	ctx := context.Background()

	id := seed(t, repo, 42, "метро")
	msg := amqp.NewExpenseSyncMessage(id, 42)

	require.NoError(t, w.HandleSyncMessage(ctx, msg))
	assert.Equal(t, storage.SyncSynced, status(t, repo, id))
	require.Len(t, writer.Expenses(42), 1)
	assert.Equal(t, "метро", writer.Expenses(42)[0].Category)

	// Redelivery does not write a second row.
	require.NoError(t, w.HandleSyncMessage(ctx, msg))
	assert.Equal(t, 1, writer.Len())
}

func TestHandleSyncMessageUnknownExpense(t *testing.T) {
	w := NewSyncWorker(newRepo(t), memory.New(), nil, 10, nil)
	assert.NoError(t, w.HandleSyncMessage(context.Background(), amqp.NewExpenseSyncMessage(999, 1)))
}

func TestFailedSyncIsRetriedAtStartup(t *testing.T) {
	repo := newRepo(t)
	writer := &flakyWriter{Store: memory.New(), fail: true}
	w := NewSyncWorker(repo, writer, nil, 10, nil)
	ctx := context.Background()

	id := seed(t, repo, 7, "такси")
	err := w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(id, 7))
	require.Error(t, err)
	assert.Equal(t, storage.SyncError, status(t, repo, id))

	writer.setFail(false)
	require.NoError(t, w.StartupSyncCheck(ctx))
	assert.Equal(t, storage.SyncSynced, status(t, repo, id))
	assert.Equal(t, 1, writer.Len())
}

func TestProcessPendingExpenses(t *testing.T) {
	repo := newRepo(t)
	writer := memory.New()
	w := NewSyncWorker(repo, writer, nil, 2, nil)
	ctx := context.Background()

	for _, c := range []string{"кофе", "чай", "хлеб"} {
		seed(t, repo, 1, c)
	}

	require.NoError(t, w.ProcessPendingExpenses(ctx))
	assert.Equal(t, 2, writer.Len())

	require.NoError(t, w.ProcessPendingExpenses(ctx))
	assert.Equal(t, 3, writer.Len())

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWorkbookUploadNeedsToken(t *testing.T) {
	repo := newRepo(t)
	store, err := xlsx.New(t.TempDir(), time.UTC)
	require.NoError(t, err)
	up := &fakeUploader{uploads: map[int64]string{}}
	w := NewSyncWorker(repo, store, up, 10, nil)
	ctx := context.Background()

	first := seed(t, repo, 42, "кофе")
	require.NoError(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(first, 42)))
	assert.Empty(t, up.uploads)

	require.NoError(t, repo.SaveToken(ctx, 42, &oauth2.Token{AccessToken: "a", TokenType: "bearer"}))
	second := seed(t, repo, 42, "чай")
	require.NoError(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(second, 42)))

	path, ok := store.WorkbookPath(42)
	require.True(t, ok)
	assert.Equal(t, path, up.uploads[42])
}

func TestUploadFailureStillMarksSynced(t *testing.T) {
	repo := newRepo(t)
	store, err := xlsx.New(t.TempDir(), time.UTC)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, repo.SaveToken(ctx, 5, &oauth2.Token{AccessToken: "a"}))

	w := NewSyncWorker(repo, store, &fakeUploader{err: errors.New("disk down")}, 10, nil)
	id := seed(t, repo, 5, "обед")

	require.NoError(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage(id, 5)))
	assert.Equal(t, storage.SyncSynced, status(t, repo, id))
}

func TestRunStopsOnCancel(t *testing.T) {
	w := NewSyncWorker(newRepo(t), memory.New(), nil, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
