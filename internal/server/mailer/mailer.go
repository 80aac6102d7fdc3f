package mailer

import "context"

// Mailer отправляет транзакционные письма.
// Доставка best-effort: ошибка отправки логируется вызывающей стороной,
// но никогда не откатывает уже выпущенный токен.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
