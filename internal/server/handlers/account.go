package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dsmelov/fitpro/internal/crypto"
	"github.com/dsmelov/fitpro/internal/models"
	"github.com/dsmelov/fitpro/internal/server/storage"
	"github.com/dsmelov/fitpro/internal/validation"
	"github.com/dsmelov/fitpro/pkg/api"
)

// Activate обрабатывает GET /api/v1/token/activate/{token}
// Одноразовое подтверждение email. Повторное предъявление того же
// токена всегда завершается ошибкой.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.PathValue("token")
	if token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}

	consumed, err := h.tokens.ConsumeEphemeralToken(ctx, token, models.TokenKindActivation, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "activation failed: token invalid or expired")
			sendError(h.logger, w, msgTokenInvalid, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to consume activation token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.users.SetVerified(ctx, consumed.UserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Пользователь удален после выпуска токена
			sendError(h.logger, w, msgTokenInvalid, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to set user verified", slog.Any("error", err))
		// Сбой случился после изъятия токена: возвращаем его, чтобы
		// ссылка из письма осталась рабочей и активацию можно было повторить
		h.restoreToken(ctx, consumed)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "account activated", slog.String("user_id", consumed.UserID))

	sendJSON(h.logger, w, api.MessageResponse{Message: "account activated"}, http.StatusOK)
}

// ForgotPassword обрабатывает POST /api/v1/auth/forgot-password
// Всегда отвечает одинаково, существует аккаунт или нет.
// Снаружи закрыт rate limiter'ом (5 запросов / 15 минут с адреса).
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode forgot password request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		sendFieldErrors(h.logger, w, []api.FieldError{{Field: "email", Message: err.Error()}})
		return
	}

	genericResp := api.MessageResponse{
		Message: "if the account exists, a reset link has been sent",
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Ответ не отличается от успешного
			sendJSON(h.logger, w, genericResp, http.StatusOK)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Новый запрос инвалидирует предыдущие reset ссылки
	if _, err := h.tokens.DeleteUserTokens(ctx, user.ID, models.TokenKindPasswordReset); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete previous reset tokens", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.issueEphemeralToken(ctx, user, models.TokenKindPasswordReset); err != nil {
		h.logger.ErrorContext(ctx, "failed to issue reset token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password reset requested", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, genericResp, http.StatusOK)
}

// ResetPassword обрабатывает POST /api/v1/auth/reset-password
// Одноразовый токен + новый пароль. Все сессии пользователя отзываются.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reset password request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		sendError(h.logger, w, "token is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		sendFieldErrors(h.logger, w, []api.FieldError{{Field: "newPassword", Message: err.Error()}})
		return
	}

	consumed, err := h.tokens.ConsumeEphemeralToken(ctx, req.Token, models.TokenKindPasswordReset, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "password reset failed: token invalid or expired")
			sendError(h.logger, w, msgTokenInvalid, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to consume reset token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	userID := consumed.UserID

	passwordHash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.restoreToken(ctx, consumed)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		// Пароль не сменился - токен пользователю еще понадобится
		h.restoreToken(ctx, consumed)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Новый пароль означает новые входы: все устройства разлогиниваются
	revoked, err := h.devices.DeleteUserDevices(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke devices", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", userID),
		slog.Int("devices_revoked", revoked))

	sendJSON(h.logger, w, api.MessageResponse{Message: "password updated"}, http.StatusOK)
}

// restoreToken возвращает изъятый токен на место после сбоя следующей
// за consume записи. Best-effort: если и вставка не удалась, токен сгорел,
// пользователю придется запросить новый.
func (h *AuthHandler) restoreToken(ctx context.Context, token *models.EphemeralToken) {
	if err := h.tokens.CreateEphemeralToken(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "failed to restore consumed token",
			slog.String("user_id", token.UserID),
			slog.String("kind", string(token.Kind)),
			slog.Any("error", err))
	}
}

// issueEphemeralToken создает одноразовый токен и отправляет письмо.
// Письмо best-effort: ошибка отправки логируется, но токен уже выпущен
// и запрос считается успешным.
func (h *AuthHandler) issueEphemeralToken(ctx context.Context, user *models.User, kind models.TokenKind) error {
	value, err := crypto.NewEphemeralToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	token := &models.EphemeralToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     value,
		Kind:      kind,
		ExpiresAt: now.Add(h.ephemeralTTL),
		CreatedAt: now,
	}

	if err := h.tokens.CreateEphemeralToken(ctx, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	var subject, body string
	switch kind {
	case models.TokenKindActivation:
		subject = "Activate your account"
		body = fmt.Sprintf("Follow the link to activate your account:\r\n%s/api/v1/token/activate/%s", h.appURL, value)
	case models.TokenKindPasswordReset:
		subject = "Password reset"
		body = fmt.Sprintf("Use this token to reset your password:\r\n%s\r\nThe token is valid for %s and can be used once.", value, h.ephemeralTTL)
	}

	if err := h.mail.Send(ctx, user.Email, subject, body); err != nil {
		h.logger.ErrorContext(ctx, "failed to send mail",
			slog.String("user_id", user.ID),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}

	return nil
}
