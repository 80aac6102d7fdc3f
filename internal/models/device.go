package models

import "time"

// DeviceType определяет класс клиентского устройства
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"  // телефоны и планшеты
	DeviceDesktop DeviceType = "desktop" // все остальное
)

// Device представляет привязку refresh token к одному логическому устройству.
// Инвариант: значение RefreshToken уникально среди всех записей и
// перезаписывается при каждой ротации.
type Device struct {
	ID             string     `json:"id"`               // UUID устройства, живет в cookie deviceId
	UserID         string     `json:"user_id"`          // владелец записи
	RefreshToken   string     `json:"-"`                // текущий refresh token, никогда не отдается наружу
	IPAddress      string     `json:"ip_address"`       // IP последнего входа
	UserAgent      string     `json:"user_agent"`       // User-Agent последнего входа
	DeviceType     DeviceType `json:"device_type"`      // mobile или desktop
	LastAccessedAt time.Time  `json:"last_accessed_at"` // время последнего login/refresh
	CreatedAt      time.Time  `json:"created_at"`       // время первого входа с устройства
}
