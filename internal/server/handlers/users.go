package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dsmelov/fitpro/internal/server/storage"
	"github.com/dsmelov/fitpro/pkg/api"
)

// UserHandler обрабатывает запросы профиля.
// Все маршруты закрыты session middleware, поэтому id пользователя
// и устройства берутся из контекста.
type UserHandler struct {
	logger  *slog.Logger
	users   storage.UserStorage
	devices storage.DeviceStorage
}

// NewUserHandler создает новый handler для профиля
func NewUserHandler(logger *slog.Logger, users storage.UserStorage, devices storage.DeviceStorage) *UserHandler {
	return &UserHandler{
		logger:  logger,
		users:   users,
		devices: devices,
	}
}

// Me обрабатывает GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, user, http.StatusOK)
}

// MyDevices обрабатывает GET /api/v1/users/me/devices
func (h *UserHandler) MyDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	devices, err := h.devices.ListUserDevices(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list devices", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.DevicesResponse{Devices: devices}, http.StatusOK)
}

// DeleteMe обрабатывает DELETE /api/v1/users/me
// Удаляет аккаунт вместе с устройствами и одноразовыми токенами
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "account deleted", slog.String("user_id", userID))

	sendJSON(h.logger, w, api.MessageResponse{Message: "account deleted"}, http.StatusOK)
}

// ListUsers обрабатывает GET /api/v1/admin/users
// Доступен только роли admin (ограничение в middleware)
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.UsersResponse{Users: users}, http.StatusOK)
}
