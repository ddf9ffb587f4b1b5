package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs messages instead of sending them. Used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (b *NoopNotifier) Notify(ctx context.Context, text string) error {
	b.log.Debug().Str("text", text).Msg("[noop-telegram] notify")
	return nil
}
