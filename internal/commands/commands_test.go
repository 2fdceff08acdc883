package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"budgetify/internal/core"
	"budgetify/internal/storage"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "", "parse", "750", "рублей", "42", "копейки", "подушка")
	require.NoError(t, err)
	assert.Equal(t, "750.42\tподушка\texplicit\n", out)
}

func TestParseCommandFailure(t *testing.T) {
	_, err := execute(t, "", "parse", "такси", "домой")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no amount found")
}

func TestParseCommandStdin(t *testing.T) {
	in := "такси 1000 р\n\n50 к мороженое\nпросто слова\n"
	out, err := execute(t, in, "parse")
	require.Error(t, err)
	assert.Equal(t, "1 of 3 lines failed to parse", err.Error())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1000.00\tтакси\texplicit", lines[0])
	assert.Equal(t, "0.50\tмороженое\tminor_only", lines[1])
	assert.Equal(t, "error\tno amount found\tno_number", lines[2])
}

func TestNormalizeCommand(t *testing.T) {
	out, err := execute(t, "", "normalize", "Такси,", "5тыс", "РУБЛЕЙ!")
	require.NoError(t, err)
	assert.Equal(t, "такси 5 {x1000} {rub}\n", out)
}

func TestTokensCommand(t *testing.T) {
	out, err := execute(t, "", "tokens", "750 рублей")
	require.NoError(t, err)
	assert.Equal(t, "Number(\"750\")[0:3]\nMajor(\"{rub}\")[4:9]\n", out)
}

func TestNormalizeRequiresText(t *testing.T) {
	_, err := execute(t, "", "normalize")
	require.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	t.Setenv("YANDEX_OAUTH_CLIENT_ID", "client")
	t.Setenv("YANDEX_OAUTH_CLIENT_SECRET", "secret")

	out, err := execute(t, "", "auth", "url", "--user", "42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "https://oauth.yandex.ru/authorize?"), out)
	assert.Contains(t, out, "client_id=client")
	assert.Contains(t, out, "state=42.")
}

func TestAuthURLWithoutClient(t *testing.T) {
	t.Setenv("YANDEX_OAUTH_CLIENT_ID", "")
	t.Setenv("YANDEX_OAUTH_CLIENT_SECRET", "")

	_, err := execute(t, "", "auth", "url", "--user", "42")
	require.Error(t, err)
}

func TestAuthStatus(t *testing.T) {
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "budgetify.db"))

	out, err := execute(t, "", "auth", "status", "--user", "7")
	require.NoError(t, err)
	assert.Equal(t, "user 7: not logged in\n", out)
}

// seedDB points SQLITE_DB_PATH at a fresh database and fills it with seed.
func seedDB(t *testing.T, seed func(ctx context.Context, repo *storage.SQLiteRepository)) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budgetify.db")
	t.Setenv("SQLITE_DB_PATH", path)

	repo, err := storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	seed(context.Background(), repo)
	require.NoError(t, repo.Close())
}

func TestAuthLogout(t *testing.T) {
	seedDB(t, func(ctx context.Context, repo *storage.SQLiteRepository) {
		require.NoError(t, repo.SaveToken(ctx, 7, &oauth2.Token{AccessToken: "access"}))
	})

	out, err := execute(t, "", "auth", "status", "--user", "7")
	require.NoError(t, err)
	assert.Equal(t, "user 7: logged in\n", out)

	out, err = execute(t, "", "auth", "logout", "--user", "7")
	require.NoError(t, err)
	assert.Equal(t, "user 7: logged out\n", out)

	out, err = execute(t, "", "auth", "status", "--user", "7")
	require.NoError(t, err)
	assert.Equal(t, "user 7: not logged in\n", out)
}

func TestExpensesCommand(t *testing.T) {
	seedDB(t, func(ctx context.Context, repo *storage.SQLiteRepository) {
		for _, e := range []core.Expense{
			{UserID: 7, Date: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), Amount: core.Money{Kopecks: 75042}, Category: "подушка", Source: core.SourceVoice},
			{UserID: 7, Date: time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC), Amount: core.Money{Kopecks: 100000}, Category: "такси", Source: core.SourceText},
			{UserID: 8, Date: time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC), Amount: core.Money{Kopecks: 1}, Category: "чужое", Source: core.SourceText},
		} {
			_, err := repo.Append(ctx, e)
			require.NoError(t, err)
		}
	})

	out, err := execute(t, "", "expenses", "--user", "7", "--month", "2024-03")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "\t750.42\tподушка\tГолос")
	assert.Contains(t, lines[1], "\t1000.00\tтакси\tТекст")
	assert.Equal(t, "total\t1750.42\t2 expenses", lines[2])
}

func TestExpensesCommandRejectsBadMonth(t *testing.T) {
	seedDB(t, func(context.Context, *storage.SQLiteRepository) {})

	_, err := execute(t, "", "expenses", "--user", "7", "--month", "March")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none, built: unknown)")
}
