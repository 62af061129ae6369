package tansender

import (
	"context"
	"fmt"

	"corebank/internal/core/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender delivers TAN codes via a Telegram bot. Accounts are
// mapped to chat ids in configuration; logins without a mapping fall back
// to the wrapped sender.
type TelegramSender struct {
	bot      *tgbotapi.BotAPI
	chats    map[string]int64
	fallback *LogSender
	log      zerolog.Logger
}

// NewTelegramSender creates a new TelegramSender.
func NewTelegramSender(token string, chats map[string]int64, log zerolog.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramSender{
		bot:      bot,
		chats:    chats,
		fallback: NewLogSender(log),
		log:      log,
	}, nil
}

// Send delivers the code to the login's chat.
func (s *TelegramSender) Send(ctx context.Context, login string, channel domain.TanChannel, code string) error {
	if channel != domain.TanChannelTelegram {
		return s.fallback.Send(ctx, login, channel, code)
	}
	chatID, ok := s.chats[login]
	if !ok {
		s.log.Warn().Str("login", login).Msg("no telegram chat mapped, logging TAN code instead")
		return s.fallback.Send(ctx, login, channel, code)
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Your confirmation code: %s", code))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
