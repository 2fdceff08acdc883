package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"budgetify/internal/core"
	"budgetify/internal/log"
	"budgetify/internal/speech"
)

// handleUpdate routes every update. Commands are matched here rather than
// through separate registrations so the order is fixed.
func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID, chatID := msg.From.ID, msg.Chat.ID
	ctx = log.NewContext(ctx, b.logger.With(log.FieldUserID, userID, log.FieldUpdateID, update.ID))

	switch {
	case msg.Voice != nil:
		messagesProcessed.WithLabelValues("voice").Inc()
		b.handleVoice(ctx, userID, chatID, msg.Voice)
	case strings.HasPrefix(msg.Text, "/"):
		cmd, args := splitCommand(msg.Text)
		b.handleCommand(ctx, userID, chatID, cmd, args)
	case strings.TrimSpace(msg.Text) != "":
		messagesProcessed.WithLabelValues("text").Inc()
		b.reply(ctx, chatID, b.recordText(ctx, userID, msg.Text, core.SourceText, false))
	default:
		messagesProcessed.WithLabelValues("other").Inc()
		b.reply(ctx, chatID, msgUnsupported)
	}
}

// splitCommand turns "/code@budgetify_bot 123" into ("code", "123").
func splitCommand(text string) (string, string) {
	head, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	head = strings.TrimPrefix(head, "/")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(args)
}

func (b *Bot) handleCommand(ctx context.Context, userID, chatID int64, cmd, args string) {
	switch cmd {
	case "start":
		b.reply(ctx, chatID, msgStart)
	case "help":
		b.reply(ctx, chatID, msgHelp)
	case "login":
		b.reply(ctx, chatID, b.loginReply(userID))
	case "code":
		b.reply(ctx, chatID, b.codeReply(ctx, userID, args))
	case "stats":
		b.reply(ctx, chatID, b.statsReply(ctx, userID))
	default:
		cmd = "unknown"
		b.reply(ctx, chatID, msgUnknownCommand)
	}
	commandsProcessed.WithLabelValues(cmd).Inc()
}

func (b *Bot) loginReply(userID int64) string {
	if b.auth == nil {
		return msgLoginDisabled
	}
	return fmt.Sprintf(msgLogin, b.auth.AuthURL(userID))
}

func (b *Bot) codeReply(ctx context.Context, userID int64, code string) string {
	if b.auth == nil || b.tokens == nil {
		return msgLoginDisabled
	}
	if code == "" {
		return msgCodeMissing
	}
	tok, err := b.auth.Exchange(ctx, code)
	if err == nil {
		err = b.tokens.SaveToken(ctx, userID, tok)
	}
	if err != nil {
		errorsTotal.WithLabelValues("oauth").Inc()
		log.FromContext(ctx).WarnContext(ctx, "Authorization failed",
			log.FieldOperation, log.OpExchange,
			log.FieldError, err)
		return msgAuthFailed
	}
	b.authStatus.Set(userID, true)
	log.FromContext(ctx).InfoContext(ctx, "User authorized Yandex.Disk", log.FieldOperation, log.OpExchange)
	return msgAuthOK
}

func (b *Bot) statsReply(ctx context.Context, userID int64) string {
	o, err := b.expenses.MonthOverview(ctx, userID)
	if err != nil {
		errorsTotal.WithLabelValues("storage").Inc()
		log.FromContext(ctx).ErrorContext(ctx, "Failed to read month overview", log.FieldError, err)
		return msgStatsFailed
	}
	return overviewReply(o)
}

func (b *Bot) handleVoice(ctx context.Context, userID, chatID int64, voice *models.Voice) {
	b.reply(ctx, chatID, b.processVoice(ctx, userID, voice.FileID, voice.Duration))
}

// processVoice downloads, recognizes and records one voice message and
// returns the reply.
func (b *Bot) processVoice(ctx context.Context, userID int64, fileID string, duration int) string {
	logger := log.FromContext(ctx)

	if !b.limiter.Allow(strconv.FormatInt(userID, 10)) {
		errorsTotal.WithLabelValues("rate_limited").Inc()
		return msgRateLimited
	}
	if duration > maxVoiceDuration {
		return msgVoiceTooLong
	}

	audio, err := b.files.Fetch(ctx, fileID)
	if err != nil {
		errorsTotal.WithLabelValues("download_file").Inc()
		logger.ErrorContext(ctx, "Failed to download voice file", log.FieldError, err)
		return msgVoiceFailed
	}

	start := time.Now()
	text, err := b.recognizer.Recognize(ctx, audio)
	recognitionDuration.Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, speech.ErrEmptyResult):
		return msgVoiceEmpty
	case errors.Is(err, speech.ErrAudioTooLarge):
		return msgVoiceTooLong
	case err != nil:
		errorsTotal.WithLabelValues("recognition").Inc()
		logger.ErrorContext(ctx, "Failed to recognize voice",
			log.FieldOperation, log.OpRecognize,
			log.FieldError, err)
		return msgVoiceFailed
	}
	logger.DebugContext(ctx, "Voice recognized", log.FieldTranscript, text)

	return b.recordText(ctx, userID, text, core.SourceVoice, true)
}

// recordText records an expense and returns the reply for the user.
func (b *Bot) recordText(ctx context.Context, userID int64, text string, source core.Source, voice bool) string {
	rec, err := b.expenses.Record(ctx, userID, text, source)
	if err != nil {
		label := failureLabel(err)
		parseResults.WithLabelValues(label).Inc()
		if label == "other" {
			errorsTotal.WithLabelValues("storage").Inc()
			log.FromContext(ctx).ErrorContext(ctx, "Failed to record expense", log.FieldError, err)
		}
		prompt := failurePrompt(err)
		if voice {
			return "📄 Распознано: " + text + "\n\n" + prompt
		}
		return prompt
	}

	parseResults.WithLabelValues(rec.Rule.String()).Inc()
	expensesRecorded.WithLabelValues(string(source)).Inc()

	reply := recordedReply(rec, text, voice)
	if b.needsLogin(ctx, userID) {
		reply += msgLoginHint
	}
	return reply
}

func (b *Bot) needsLogin(ctx context.Context, userID int64) bool {
	if b.auth == nil || b.tokens == nil {
		return false
	}
	ok, err := b.authStatus.Get(ctx, userID)
	return err == nil && !ok
}
