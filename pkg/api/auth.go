package api

import "github.com/dsmelov/fitpro/internal/models"

// SignupRequest представляет запрос на регистрацию нового пользователя
type SignupRequest struct {
	Email    string      `json:"email"`          // email пользователя
	Password string      `json:"password"`       // пароль в открытом виде
	Role     models.Role `json:"role,omitempty"` // user или professional, по умолчанию user
}

// SignupResponse представляет ответ на успешную регистрацию
type SignupResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"` // просьба подтвердить email
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ на успешный вход.
// Refresh token не возвращается в теле - он живет только в httpOnly cookie.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"` // JWT access token
	DeviceID    string       `json:"deviceId"`    // id записи устройства, дублирует cookie
	User        *models.User `json:"user"`        // профиль без хеша пароля
}

// RefreshResponse представляет ответ на успешную ротацию
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// ForgotPasswordRequest представляет запрос на сброс пароля
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest представляет установку нового пароля по токену
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse представляет ответ с информационным сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// FieldError представляет ошибку валидации одного поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse представляет ответ с ошибками валидации
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}
