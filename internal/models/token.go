package models

import "time"

// TokenKind определяет назначение одноразового токена
type TokenKind string

const (
	TokenKindActivation    TokenKind = "activation"     // подтверждение email после регистрации
	TokenKindPasswordReset TokenKind = "password_reset" // сброс пароля
)

// EphemeralToken представляет одноразовый токен с ограниченным временем жизни.
// Инвариант: токен удаляется при использовании, повторное предъявление
// того же значения всегда завершается ошибкой.
type EphemeralToken struct {
	ID        string    `json:"id"`         // UUID токена
	UserID    string    `json:"user_id"`    // владелец токена
	Token     string    `json:"token"`      // случайные 32 байта, hex-encoded
	Kind      TokenKind `json:"kind"`       // activation или password_reset
	ExpiresAt time.Time `json:"expires_at"` // время истечения (по умолчанию создание + 24h)
	CreatedAt time.Time `json:"created_at"` // время создания
}
