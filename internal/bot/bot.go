package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rssgram/internal/ratelimiter"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// Bot is the delivery client: it sends formatted text or photo-with-
// caption messages to one destination chat, honoring the muted flag and
// optional forum-thread targeting. Every send goes through the rate
// limiter queue, so consecutive deliveries are paced apart.
type Bot struct {
	api         *bot.Bot
	chatID      int64
	topicID     int
	muted       bool
	rateLimiter *ratelimiter.RateLimiter
	log         *slog.Logger
}

func New(
	token string,
	chatID int64,
	topicID int,
	muted bool,
	deliveryDelay time.Duration,
	log *slog.Logger,
) (*Bot, error) {
	api, err := bot.New(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	return &Bot{
		api:         api,
		chatID:      chatID,
		topicID:     topicID,
		muted:       muted,
		rateLimiter: ratelimiter.New(deliveryDelay, log),
		log:         log,
	}, nil
}

// SendText delivers a MarkdownV2 text message.
func (b *Bot) SendText(ctx context.Context, text string) error {
	return b.rateLimiter.Do(ctx, func(ctx context.Context) error {
		_, err := b.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:              b.chatID,
			MessageThreadID:     b.topicID,
			Text:                text,
			ParseMode:           tgmodels.ParseModeMarkdown,
			DisableNotification: b.muted,
		})
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}

		return nil
	})
}

// SendPhoto delivers an image by URL with a MarkdownV2 caption.
func (b *Bot) SendPhoto(ctx context.Context, photoURL, caption string) error {
	return b.rateLimiter.Do(ctx, func(ctx context.Context) error {
		_, err := b.api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:              b.chatID,
			MessageThreadID:     b.topicID,
			Photo:               &tgmodels.InputFileString{Data: photoURL},
			Caption:             caption,
			ParseMode:           tgmodels.ParseModeMarkdown,
			DisableNotification: b.muted,
		})
		if err != nil {
			return fmt.Errorf("send photo: %w", err)
		}

		return nil
	})
}

func (b *Bot) Stop() {
	b.rateLimiter.Stop()
}
