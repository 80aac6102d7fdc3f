package api

import "github.com/dsmelov/fitpro/internal/models"

// DevicesResponse представляет список устройств пользователя
type DevicesResponse struct {
	Devices []*models.Device `json:"devices"`
}

// UsersResponse представляет список пользователей (админский)
type UsersResponse struct {
	Users []*models.User `json:"users"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status string `json:"status"`
}
