package alert

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"affil-dashboard/internal/domain"
)

// TelegramAlerter шлёт уведомления о сбоях в Telegram-чат оператора.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram создаёт алертер. Токен и чат обязательны.
func NewTelegram(token string, chatID int64) (*TelegramAlerter, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("token и chatID обязательны")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("инициализация бота: %w", err)
	}
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

// Alert отправляет одно сообщение в чат.
func (a *TelegramAlerter) Alert(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(a.chatID, "⚠️ affil-dashboard: "+text)
	if _, err := a.bot.Send(msg); err != nil {
		return fmt.Errorf("отправка алерта: %w", err)
	}
	return nil
}

var _ domain.Alerter = (*TelegramAlerter)(nil)
