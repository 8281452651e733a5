// Package notify delivers best-effort operator notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/ragwidget/kbchat/internal/config"
)

// Telegram sends fire-and-forget text messages to a bot chat. Missing
// configuration silently disables delivery; callers never see an error.
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

// NewTelegram creates the notifier from config. Either an empty bot token
// or an empty chat ID disables it.
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(cfg.Timeout)
	return &Telegram{client: client, token: cfg.BotToken, chatID: cfg.ChatID}
}

// Disabled reports whether the notifier is configured.
func (t *Telegram) Disabled() bool {
	return t.token == "" || t.chatID == ""
}

// Notify delivers text to the configured chat. Failures are logged and
// swallowed.
func (t *Telegram) Notify(ctx context.Context, text string) {
	if t.Disabled() {
		return
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": t.chatID,
			"text":    text,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		slog.Warn("telegram notification failed", "error", err)
		return
	}
	if resp.IsError() {
		slog.Warn("telegram notification rejected", "status", resp.StatusCode())
	}
}
