package server

import (
	"log/slog"
	"net/http"

	"github.com/dsmelov/fitpro/internal/models"
	"github.com/dsmelov/fitpro/internal/server/handlers"
	"github.com/dsmelov/fitpro/internal/server/jwt"
	"github.com/dsmelov/fitpro/internal/server/middleware"
	"github.com/dsmelov/fitpro/internal/server/storage"
)

// Deps собирает зависимости роутера
type Deps struct {
	Logger       *slog.Logger
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Health       *handlers.HealthHandler
	JWT          *jwt.Service
	Devices      storage.DeviceStorage
	ResetLimiter *middleware.RateLimiter
}

// NewRouter собирает все маршруты сервиса.
// Публичные auth маршруты открыты, профильные закрыты session middleware,
// админские дополнительно ограничены ролью.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", d.Health.Health)

	mux.HandleFunc("POST /api/v1/auth/signup", d.Auth.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", d.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh-token", d.Auth.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", d.Auth.Logout)
	mux.HandleFunc("GET /api/v1/token/activate/{token}", d.Auth.Activate)
	mux.HandleFunc("POST /api/v1/auth/reset-password", d.Auth.ResetPassword)

	// forgot-password закрыт лимитером: 5 запросов / 15 минут с адреса
	resetLimit := middleware.RateLimitMiddleware(d.ResetLimiter, d.Logger)
	mux.Handle("POST /api/v1/auth/forgot-password", resetLimit(http.HandlerFunc(d.Auth.ForgotPassword)))

	session := middleware.SessionMiddleware(d.Logger, d.JWT, d.Devices)
	adminOnly := middleware.SessionMiddleware(d.Logger, d.JWT, d.Devices, models.RoleAdmin)

	mux.Handle("GET /api/v1/users/me", session(http.HandlerFunc(d.Users.Me)))
	mux.Handle("GET /api/v1/users/me/devices", session(http.HandlerFunc(d.Users.MyDevices)))
	mux.Handle("DELETE /api/v1/users/me", session(http.HandlerFunc(d.Users.DeleteMe)))
	mux.Handle("GET /api/v1/admin/users", adminOnly(http.HandlerFunc(d.Users.ListUsers)))

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(d.Logger)(handler)
	handler = middleware.RecoveryMiddleware(d.Logger)(handler)

	return handler
}
