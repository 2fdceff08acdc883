// Package telegram is the chat front end: it turns voice and text messages
// into recorded expenses and handles the Yandex.Disk login commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/oauth2"

	"budgetify/internal/cache"
	"budgetify/internal/core"
	"budgetify/internal/log"
	"budgetify/internal/middleware/ratelimit"
	"budgetify/internal/services"
	"budgetify/internal/speech"
)

// maxVoiceDuration is SpeechKit's limit for synchronous recognition.
const maxVoiceDuration = 30

// Login status is checked after every recorded expense.
const (
	authCacheSize = 1024
	authCacheTTL  = time.Minute
)

// ExpenseRecorder is implemented by services.ExpenseService.
type ExpenseRecorder interface {
	Record(ctx context.Context, userID int64, text string, source core.Source) (*services.Recorded, error)
	MonthOverview(ctx context.Context, userID int64) (core.MonthOverview, error)
}

// Authenticator issues Yandex login links and exchanges codes.
type Authenticator interface {
	AuthURL(userID int64) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// TokenStore keeps the users' Yandex tokens.
type TokenStore interface {
	SaveToken(ctx context.Context, userID int64, tok *oauth2.Token) error
	IsAuthenticated(ctx context.Context, userID int64) (bool, error)
}

// AudioFetcher downloads a voice message by its Telegram file id.
type AudioFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

type messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type Config struct {
	Token              string
	Debug              bool
	VoiceRatePerMinute int
}

// Deps are the bot's collaborators. Auth and Tokens may be nil when Disk
// upload is not configured.
type Deps struct {
	Expenses   ExpenseRecorder
	Recognizer speech.Recognizer
	Auth       Authenticator
	Tokens     TokenStore
	Logger     *log.Logger
}

type Bot struct {
	api        *bot.Bot
	sender     messenger
	files      AudioFetcher
	expenses   ExpenseRecorder
	recognizer speech.Recognizer
	auth       Authenticator
	tokens     TokenStore
	authStatus *cache.Loading[int64, bool]
	limiter    *ratelimit.Limiter
	logger     *log.Logger
}

// New creates the bot. It contacts Telegram to validate the token.
func New(cfg Config, deps Deps) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	b := newBot(cfg, deps)

	opts := []bot.Option{
		bot.WithDefaultHandler(b.handleUpdate),
		bot.WithMiddlewares(b.recoverer),
	}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}
	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	b.api = api
	b.sender = api
	b.files = &telegramFiles{api: api, token: cfg.Token, http: &http.Client{Timeout: 30 * time.Second}}
	return b, nil
}

func newBot(cfg Config, deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	b := &Bot{
		expenses:   deps.Expenses,
		recognizer: deps.Recognizer,
		auth:       deps.Auth,
		tokens:     deps.Tokens,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.VoiceRatePerMinute}),
		logger:     logger.WithComponent(log.ComponentBot),
	}
	if b.tokens != nil {
		b.authStatus = cache.NewLoading(cache.NewLRU[int64, bool](authCacheSize, authCacheTTL), b.tokens.IsAuthenticated)
	}
	return b
}

// Start runs long polling until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	b.logger.InfoContext(ctx, "Telegram bot started", "username", me.Username, "id", me.ID)
	b.api.Start(ctx)
	return nil
}

// Stop releases the rate limiter.
func (b *Bot) Stop() {
	b.limiter.Stop()
}

// recoverer keeps one bad update from taking the process down.
func (b *Bot) recoverer(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, api *bot.Bot, update *models.Update) {
		defer func() {
			if r := recover(); r != nil {
				b.logger.ErrorContext(ctx, "Panic while handling update",
					log.FieldUpdateID, update.ID,
					"panic", r)
			}
		}()
		next(ctx, api, update)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		errorsTotal.WithLabelValues("send").Inc()
		b.logger.ErrorContext(ctx, "Failed to send message", log.FieldChatID, chatID, log.FieldError, err)
	}
}

// fileAPI is the part of *bot.Bot used to locate a voice file.
type fileAPI interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// telegramFiles downloads voice files. Both the Bot API and the file
// download URLs embed the bot token, so errors leave here without them.
type telegramFiles struct {
	api   fileAPI
	token string
	http  *http.Client
}

func (f *telegramFiles) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	file, err := f.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", f.redact(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.api.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", f.redact(err))
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", f.redact(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	// One byte past the limit lets the recognizer report the size.
	return io.ReadAll(io.LimitReader(resp.Body, speech.MaxAudioBytes+1))
}

// redact drops the request URL from err. Anything that still mentions the
// token is replaced by a plain message.
func (f *telegramFiles) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	if f.token != "" && strings.Contains(err.Error(), f.token) {
		return errors.New(strings.ReplaceAll(err.Error(), f.token, "<token>"))
	}
	return err
}
