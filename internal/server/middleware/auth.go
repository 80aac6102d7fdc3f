package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dsmelov/fitpro/internal/models"
	"github.com/dsmelov/fitpro/internal/server/handlers"
	"github.com/dsmelov/fitpro/internal/server/jwt"
	"github.com/dsmelov/fitpro/internal/server/storage"
	"github.com/dsmelov/fitpro/pkg/api"
)

// SessionMiddleware создает middleware полной проверки сессии:
//  1. подпись и срок access токена (stateless)
//  2. живая запись устройства {user_id, deviceId cookie} в реестре -
//     благодаря этому logout и отзыв действуют сразу, хотя access токен
//     криптографически валиден до собственного истечения
//  3. роль из allow-списка маршрута (пустой список - любая роль)
func SessionMiddleware(logger *slog.Logger, jwtSvc *jwt.Service, devices storage.DeviceStorage, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header")
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtSvc.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("invalid access token", "error", err)
				writeError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			deviceCookie, err := r.Cookie(handlers.DeviceIDCookie)
			if err != nil || deviceCookie.Value == "" {
				logger.Warn("missing device id cookie", "user_id", claims.UserID)
				writeError(w, "invalid or expired session", http.StatusForbidden)
				return
			}

			// Повторная сверка с реестром устройств на каждом запросе
			if _, err := devices.GetDevice(r.Context(), deviceCookie.Value, claims.UserID); err != nil {
				if errors.Is(err, storage.ErrDeviceNotFound) {
					logger.Warn("session rejected: no live device record",
						"user_id", claims.UserID,
						"device_id", deviceCookie.Value)
					writeError(w, "invalid or expired session", http.StatusForbidden)
					return
				}
				logger.Error("failed to resolve device", "error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
				logger.Warn("role not allowed for route",
					"user_id", claims.UserID,
					"role", string(claims.Role))
				writeError(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, handlers.RoleKey, claims.Role)
			ctx = context.WithValue(ctx, handlers.DeviceIDKey, deviceCookie.Value)

			logger.Debug("session authenticated",
				"user_id", claims.UserID,
				"device_id", deviceCookie.Value)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role models.Role, allowed []models.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// writeError отправляет JSON ошибку в том же формате, что и handlers
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
