package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	api *tgbotapi.BotAPI
}

// NewTelegramSender wraps a Telegram API client as a MessageSender.
func NewTelegramSender(api *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{api: api}
}

// SendText sends a plain text message to a chat.
func (s *TelegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.api.Send(msg)
	return err
}

// Runner long-polls Telegram and feeds incoming messages to a Handler.
type Runner struct {
	api     *tgbotapi.BotAPI
	handler *Handler
}

// NewRunner creates a polling runner.
func NewRunner(api *tgbotapi.BotAPI, handler *Handler) *Runner {
	return &Runner{api: api, handler: handler}
}

// Run polls for updates until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := r.api.GetUpdatesChan(updateConfig)
	defer r.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			chatID := update.Message.Chat.ID
			slog.Info("received message", "chat_id", chatID, "text", update.Message.Text)

			if err := r.handler.HandleMessage(ctx, chatID, update.Message.Text); err != nil {
				slog.Error("failed to handle message", "chat_id", chatID, "error", err)
			}
		}
	}
}
