package telegram

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*Notifier)(nil)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// Sender is the part of tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts operator messages to a single Telegram chat.
type Notifier struct {
	bot    Sender
	chatID int64
	log    *zerolog.Logger
}

// NewNotifier connects to the Bot API with token.
func NewNotifier(token string, chatID int64, logger *zerolog.Logger) (*Notifier, error) {
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	if chatID == 0 {
		return nil, errors.New("telegram: chat id is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return NewNotifierWithSender(bot, chatID, logger), nil
}

func NewNotifierWithSender(bot Sender, chatID int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, log: logger}
}

// Notify sends text, split into several messages when it is too long.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(n.chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn().Err(err).Int64("chat_id", n.chatID).Msg("telegram notify failed")
			return err
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit runes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var out []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			r := []rune(line)
			out = append(out, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return out
}
