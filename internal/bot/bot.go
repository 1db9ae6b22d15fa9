package bot

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"news_digest/internal/service"
)

const (
	replySubscribed     = "You've subscribed to the daily news digest!"
	replyAlreadySubbed  = "You're already subscribed!"
	replyUnsubscribed   = "You've unsubscribed from the daily news digest."
	replyNotSubscribed  = "You're not subscribed!"
	replyNoDigest       = "No digest is available yet, check back after the next one goes out."
	replyUnknownCommand = "Unknown command. Send /help to see what I can do."
	replyHelp           = "/start - subscribe to the daily digest\n" +
		"/stop - unsubscribe\n" +
		"/resend - resend the latest digest\n" +
		"/help - show this message"
	resendCaption = "Here's your daily news summary!"

	pollRetryDelay = 5 * time.Second
)

// Sender is the slice of the Telegram client the bot loop uses.
type Sender interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendVoice(ctx context.Context, chatID int64, voice []byte, caption string) error
}

// Bot serves the subscription command surface over getUpdates long polling.
type Bot struct {
	client      Sender
	subscribers service.SubscriberStore
	voiceFile   string
	logger      *slog.Logger
}

func New(client Sender, subscribers service.SubscriberStore, voiceFile string, logger *slog.Logger) *Bot {
	return &Bot{
		client:      client,
		subscribers: subscribers,
		voiceFile:   voiceFile,
		logger:      logger,
	}
}

// Run polls for updates until the context is cancelled. Poll failures are
// retried after a short delay; per-update handling failures are logged and do
// not stop the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot started")

	var offset int64
	for {
		if ctx.Err() != nil {
			b.logger.Info("bot stopped")
			return ctx.Err()
		}

		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("bot stopped")
				return ctx.Err()
			}
			b.logger.Error("get updates", "error", err)
			select {
			case <-ctx.Done():
				b.logger.Info("bot stopped")
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	command := parseCommand(update.Message.Text)

	var err error
	switch command {
	case "/start":
		err = b.handleStart(ctx, chatID)
	case "/stop":
		err = b.handleStop(ctx, chatID)
	case "/resend":
		err = b.handleResend(ctx, chatID)
	case "/help":
		err = b.client.SendMessage(ctx, chatID, replyHelp)
	default:
		err = b.client.SendMessage(ctx, chatID, replyUnknownCommand)
	}
	if err != nil {
		b.logger.Error("handle command", "command", command, "chat_id", chatID, "error", err)
	}
}

// parseCommand extracts the leading bot command, dropping arguments and the
// @botname suffix used in group chats.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return command
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	_, created, err := b.subscribers.GetOrCreate(ctx, chatID)
	if err != nil {
		return err
	}

	if !created {
		return b.client.SendMessage(ctx, chatID, replyAlreadySubbed)
	}

	b.logger.Info("subscriber added", "chat_id", chatID)
	return b.client.SendMessage(ctx, chatID, replySubscribed)
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) error {
	deleted, err := b.subscribers.Delete(ctx, chatID)
	if err != nil {
		return err
	}

	if !deleted {
		return b.client.SendMessage(ctx, chatID, replyNotSubscribed)
	}

	b.logger.Info("subscriber removed", "chat_id", chatID)
	return b.client.SendMessage(ctx, chatID, replyUnsubscribed)
}

func (b *Bot) handleResend(ctx context.Context, chatID int64) error {
	voice, err := os.ReadFile(b.voiceFile)
	if err != nil {
		return b.client.SendMessage(ctx, chatID, replyNoDigest)
	}

	return b.client.SendVoice(ctx, chatID, voice, resendCaption)
}
