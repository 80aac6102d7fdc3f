package mailer

import (
	"context"
	"log/slog"
)

// LogMailer пишет письма в лог вместо отправки.
// Используется в локальном окружении, где нет SMTP сервера.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer создает mailer, пишущий в лог
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send логирует письмо. Тело не пишем целиком: оно содержит одноразовый токен.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "mail (not sent, local env)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_len", len(body)),
	)
	return nil
}
