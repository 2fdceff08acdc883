package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"budgetify/internal/core"
	"budgetify/internal/parser"
	"budgetify/internal/services"
	"budgetify/internal/speech"
)

type sentMessages struct {
	mu   sync.Mutex
	msgs []string
}

func (s *sentMessages) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, p.Text)
	return &models.Message{Text: p.Text}, nil
}

func (s *sentMessages) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return ""
	}
	return s.msgs[len(s.msgs)-1]
}

type memStore struct {
	mu    sync.Mutex
	items []core.Expense
}

func (m *memStore) Append(_ context.Context, e core.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, e)
	return int64(len(m.items)), nil
}

func (m *memStore) ReadMonthOverview(_ context.Context, userID int64, year, month int, _ *time.Location) (core.MonthOverview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := core.MonthOverview{Year: year, Month: month}
	for _, e := range m.items {
		if e.UserID != userID {
			continue
		}
		o.Total = o.Total.Add(e.Amount)
		o.ByCategory = append(o.ByCategory, core.CategoryAmount{Name: e.Category, Amount: e.Amount, Count: 1})
	}
	return o, nil
}

type fakeFiles struct{ err error }

func (f fakeFiles) Fetch(context.Context, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("OggS"), nil
}

type fakeRecognizer struct {
	text string
	err  error
}

func (f fakeRecognizer) Recognize(context.Context, []byte) (string, error) {
	return f.text, f.err
}

type fakeAuth struct{ err error }

func (f fakeAuth) AuthURL(userID int64) string {
	return fmt.Sprintf("https://oauth.example/authorize?state=%d", userID)
}

func (f fakeAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

type fakeTokens struct {
	mu    sync.Mutex
	saved map[int64]*oauth2.Token
}

func (f *fakeTokens) SaveToken(_ context.Context, userID int64, tok *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[userID] = tok
	return nil
}

func (f *fakeTokens) IsAuthenticated(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.saved[userID]
	return ok, nil
}

type harness struct {
	bot    *Bot
	sent   *sentMessages
	store  *memStore
	tokens *fakeTokens
}

func newHarness(t *testing.T, rec speech.Recognizer, auth Authenticator, rate int) *harness {
	t.Helper()
	store := &memStore{}
	tokens := &fakeTokens{saved: map[int64]*oauth2.Token{}}
	svc := services.NewExpenseService(store, nil,
		services.WithClock(func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }),
		services.WithLocation(time.UTC))

	deps := Deps{Expenses: svc, Recognizer: rec}
	if auth != nil {
		deps.Auth, deps.Tokens = auth, tokens
	}
	b := newBot(Config{VoiceRatePerMinute: rate}, deps)
	t.Cleanup(b.Stop)
	sent := &sentMessages{}
	b.sender = sent
	b.files = fakeFiles{}
	return &harness{bot: b, sent: sent, store: store, tokens: tokens}
}

func (h *harness) text(t *testing.T, s string) string {
	t.Helper()
	h.bot.handleUpdate(context.Background(), nil, &models.Update{
		ID: 1,
		Message: &models.Message{
			From: &models.User{ID: 42},
			Chat: models.Chat{ID: 100},
			Text: s,
		},
	})
	return h.sent.last()
}

func (h *harness) voice(t *testing.T, duration int) string {
	t.Helper()
	h.bot.handleUpdate(context.Background(), nil, &models.Update{
		ID: 2,
		Message: &models.Message{
			From:  &models.User{ID: 42},
			Chat:  models.Chat{ID: 100},
			Voice: &models.Voice{FileID: "file-1", Duration: duration},
		},
	})
	return h.sent.last()
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		kopecks int64
		want    string
	}{
		{75042, "750,42 ₽"},
		{0, "0,00 ₽"},
		{5, "0,05 ₽"},
		{123456, "1 234,56 ₽"},
		{100000000, "1 000 000,00 ₽"},
		{-150, "-1,50 ₽"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(core.Money{Kopecks: tt.kopecks}), tt.kopecks)
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct{ in, cmd, args string }{
		{"/start", "start", ""},
		{"/code 1234567", "code", "1234567"},
		{"/code@budgetify_bot  98765 ", "code", "98765"},
		{"/STATS", "stats", ""},
	}
	for _, tt := range tests {
		cmd, args := splitCommand(tt.in)
		assert.Equal(t, tt.cmd, cmd, tt.in)
		assert.Equal(t, tt.args, args, tt.in)
	}
}

func TestFailurePrompt(t *testing.T) {
	for _, input := range []string{"такси домой", "250", "рублей 250", "1000 рублей 150 копеек такси"} {
		_, err := parser.Parse(input)
		require.Error(t, err, input)
		assert.NotEqual(t, msgRecordFailed, failurePrompt(err), input)
		assert.NotEqual(t, "other", failureLabel(err), input)
	}
	assert.Equal(t, msgRecordFailed, failurePrompt(errors.New("disk full")))
	assert.Equal(t, "other", failureLabel(errors.New("disk full")))
}

func TestTextMessageRecordsExpense(t *testing.T) {
	h := newHarness(t, nil, nil, 10)

	reply := h.text(t, "такси 1000 р")
	assert.Equal(t, "✅ Записано: 1 000,00 ₽, такси", reply)
	require.Len(t, h.store.items, 1)
	assert.Equal(t, core.SourceText, h.store.items[0].Source)
}

func TestTextMessageParseFailure(t *testing.T) {
	h := newHarness(t, nil, nil, 10)

	assert.Equal(t, msgNoAmount, h.text(t, "такси домой"))
	assert.Empty(t, h.store.items)
}

func TestVoiceMessage(t *testing.T) {
	h := newHarness(t, fakeRecognizer{text: "127 рублей 25 копеек шоколадка"}, nil, 10)

	reply := h.voice(t, 3)
	assert.Equal(t, "📄 Распознано: 127 рублей 25 копеек шоколадка\n\n✅ Записано: 127,25 ₽, шоколадка", reply)
	require.Len(t, h.store.items, 1)
	assert.Equal(t, core.SourceVoice, h.store.items[0].Source)
}

func TestVoiceFailures(t *testing.T) {
	t.Run("empty recognition", func(t *testing.T) {
		h := newHarness(t, fakeRecognizer{err: speech.ErrEmptyResult}, nil, 10)
		assert.Equal(t, msgVoiceEmpty, h.voice(t, 3))
	})
	t.Run("recognizer error", func(t *testing.T) {
		h := newHarness(t, fakeRecognizer{err: &speech.APIError{StatusCode: 500}}, nil, 10)
		assert.Equal(t, msgVoiceFailed, h.voice(t, 3))
	})
	t.Run("download error", func(t *testing.T) {
		h := newHarness(t, fakeRecognizer{text: "250 метро"}, nil, 10)
		h.bot.files = fakeFiles{err: errors.New("timeout")}
		assert.Equal(t, msgVoiceFailed, h.voice(t, 3))
	})
	t.Run("too long", func(t *testing.T) {
		h := newHarness(t, fakeRecognizer{text: "250 метро"}, nil, 10)
		assert.Equal(t, msgVoiceTooLong, h.voice(t, 31))
	})
	t.Run("unparseable transcript", func(t *testing.T) {
		h := newHarness(t, fakeRecognizer{text: "привет"}, nil, 10)
		reply := h.voice(t, 3)
		assert.True(t, strings.HasPrefix(reply, "📄 Распознано: привет"))
		assert.True(t, strings.HasSuffix(reply, msgNoAmount))
	})
}

func TestVoiceRateLimit(t *testing.T) {
	h := newHarness(t, fakeRecognizer{text: "250 метро"}, nil, 1)

	assert.Contains(t, h.voice(t, 3), "250,00 ₽, метро")
	assert.Equal(t, msgRateLimited, h.voice(t, 3))
	assert.Len(t, h.store.items, 1)
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t, nil, fakeAuth{}, 10)

	assert.Contains(t, h.text(t, "/login"), "https://oauth.example/authorize?state=42")
	assert.True(t, strings.HasSuffix(h.text(t, "250 метро"), msgLoginHint))

	assert.Equal(t, msgCodeMissing, h.text(t, "/code"))
	assert.Equal(t, msgAuthOK, h.text(t, "/code 1234567"))
	assert.Equal(t, "tok-1234567", h.tokens.saved[42].AccessToken)

	assert.False(t, strings.HasSuffix(h.text(t, "300 кофе"), msgLoginHint))
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t, nil, fakeAuth{err: errors.New("bad code")}, 10)
	assert.Equal(t, msgAuthFailed, h.text(t, "/code 000"))
	assert.Empty(t, h.tokens.saved)
}

func TestLoginDisabled(t *testing.T) {
	h := newHarness(t, nil, nil, 10)
	assert.Equal(t, msgLoginDisabled, h.text(t, "/login"))
	assert.Equal(t, msgLoginDisabled, h.text(t, "/code 1"))
	assert.False(t, strings.HasSuffix(h.text(t, "250 метро"), msgLoginHint))
}

func TestStats(t *testing.T) {
	h := newHarness(t, nil, nil, 10)
	assert.Equal(t, "📊 За март 2025 расходов пока нет.", h.text(t, "/stats"))

	h.text(t, "250 метро")
	h.text(t, "1250 рублей 50 копеек продукты")

	reply := h.text(t, "/stats")
	assert.Contains(t, reply, "📊 Расходы за март 2025")
	assert.Contains(t, reply, "• метро: 250,00 ₽ (1)")
	assert.Contains(t, reply, "• продукты: 1 250,50 ₽ (1)")
	assert.Contains(t, reply, "Итого: 1 500,50 ₽")
}

func TestCommands(t *testing.T) {
	h := newHarness(t, nil, nil, 10)
	assert.Equal(t, msgStart, h.text(t, "/start"))
	assert.Equal(t, msgHelp, h.text(t, "/help"))
	assert.Equal(t, msgUnknownCommand, h.text(t, "/delete"))
}
