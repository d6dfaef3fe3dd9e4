package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier is one outcome channel.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Multi fans a notification out to every configured channel. A failing
// channel is logged and skipped; Multi itself never fails.
type Multi struct {
	channels []Notifier
	logger   *zap.Logger
}

// NewMulti returns combined notifier.
func NewMulti(logger *zap.Logger, channels ...Notifier) *Multi {
	return &Multi{channels: channels, logger: logger}
}

// Notify delivers to all channels.
func (m *Multi) Notify(ctx context.Context, subject, body string) error {
	for _, ch := range m.channels {
		if err := ch.Notify(ctx, subject, body); err != nil {
			m.logger.Error("notification channel failed", zap.String("subject", subject), zap.Error(err))
		}
	}
	return nil
}
