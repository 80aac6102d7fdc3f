package models

import "time"

// Role определяет роль пользователя в системе
type Role string

const (
	RoleUser         Role = "user"         // обычный пользователь (мобильное приложение)
	RoleProfessional Role = "professional" // специалист (веб-кабинет)
	RoleAdmin        Role = "admin"        // администратор
)

// Valid проверяет, что роль одна из известных
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleProfessional, RoleAdmin:
		return true
	}
	return false
}

// User представляет пользователя в системе
type User struct {
	ID           string    `json:"id"`          // UUID пользователя
	Email        string    `json:"email"`       // уникальный email
	PasswordHash string    `json:"-"`           // bcrypt хеш пароля, никогда не отдается наружу
	Role         Role      `json:"role"`        // роль пользователя
	IsVerified   bool      `json:"is_verified"` // подтвержден ли email
	CreatedAt    time.Time `json:"created_at"`  // время создания
	UpdatedAt    time.Time `json:"updated_at"`  // время последнего обновления
}
