package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// botAPI is the bot surface used, extracted so tests can fake it.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier mirrors notifications to a telegram chat.
type TelegramNotifier struct {
	bot    botAPI
	chatID int64
}

// NewTelegramNotifier connects the bot API with the given key.
func NewTelegramNotifier(apiKey string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(apiKey)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: api, chatID: chatID}, nil
}

// Notify sends subject and body as one message.
func (n *TelegramNotifier) Notify(_ context.Context, subject, body string) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("%s\n\n%s", subject, body))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("notify: telegram send: %w", err)
	}
	return nil
}
