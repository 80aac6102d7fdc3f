package handlers

// contextKey - отдельный тип для ключей контекста, чтобы не пересекаться
// с ключами других пакетов
type contextKey string

const (
	// UserIDKey ключ контекста с id аутентифицированного пользователя
	UserIDKey contextKey = "user_id"
	// RoleKey ключ контекста с ролью пользователя
	RoleKey contextKey = "role"
	// DeviceIDKey ключ контекста с id устройства текущей сессии
	DeviceIDKey contextKey = "device_id"
)
