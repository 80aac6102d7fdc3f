package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dsmelov/fitpro/internal/crypto"
	"github.com/dsmelov/fitpro/internal/models"
	"github.com/dsmelov/fitpro/internal/server/device"
	"github.com/dsmelov/fitpro/internal/server/jwt"
	"github.com/dsmelov/fitpro/internal/server/mailer"
	"github.com/dsmelov/fitpro/internal/server/storage"
	"github.com/dsmelov/fitpro/internal/validation"
	"github.com/dsmelov/fitpro/pkg/api"
)

// Одинаковое сообщение для несуществующего email и неверного пароля,
// чтобы не давать перечислять аккаунты. "email not verified" намеренно
// отличается - это осознанный компромисс.
const (
	msgInvalidCredentials = "invalid credentials"
	msgEmailNotVerified   = "email not verified"
	msgDeviceNotAllowed   = "this device type is not allowed for your role"
	msgDeviceInvalid      = "invalid or expired session"
	msgTokenInvalid       = "invalid or expired token"
)

// AuthHandler обрабатывает запросы регистрации и управления сессией
type AuthHandler struct {
	logger        *slog.Logger
	users         storage.UserStorage
	devices       storage.DeviceStorage
	tokens        storage.EphemeralTokenStorage
	jwt           *jwt.Service
	mail          mailer.Mailer
	appURL        string
	secureCookies bool
	refreshTTL    time.Duration
	ephemeralTTL  time.Duration
}

// AuthHandlerConfig собирает зависимости AuthHandler
type AuthHandlerConfig struct {
	Logger        *slog.Logger
	Users         storage.UserStorage
	Devices       storage.DeviceStorage
	Tokens        storage.EphemeralTokenStorage
	JWT           *jwt.Service
	Mailer        mailer.Mailer
	AppURL        string
	SecureCookies bool
	RefreshTTL    time.Duration
	EphemeralTTL  time.Duration
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		logger:        cfg.Logger,
		users:         cfg.Users,
		devices:       cfg.Devices,
		tokens:        cfg.Tokens,
		jwt:           cfg.JWT,
		mail:          cfg.Mailer,
		appURL:        cfg.AppURL,
		secureCookies: cfg.SecureCookies,
		refreshTTL:    cfg.RefreshTTL,
		ephemeralTTL:  cfg.EphemeralTTL,
	}
}

// Signup обрабатывает POST /api/v1/auth/signup
// Регистрация нового пользователя с последующей активацией по email
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode signup request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация полей, до любого обращения к БД
	var fieldErrs []api.FieldError
	if err := validation.ValidateEmail(req.Email); err != nil {
		fieldErrs = append(fieldErrs, api.FieldError{Field: "email", Message: err.Error()})
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		fieldErrs = append(fieldErrs, api.FieldError{Field: "password", Message: err.Error()})
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	// Администраторов через публичную регистрацию не создают
	if role != models.RoleUser && role != models.RoleProfessional {
		fieldErrs = append(fieldErrs, api.FieldError{Field: "role", Message: "role must be user or professional"})
	}

	if len(fieldErrs) > 0 {
		sendFieldErrors(h.logger, w, fieldErrs)
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "signup: email already taken", slog.String("email", req.Email))
			sendError(h.logger, w, "email already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Активационный токен отправляется только почтой,
	// в ответ API он не попадает
	if err := h.issueEphemeralToken(ctx, user, models.TokenKindActivation); err != nil {
		h.logger.ErrorContext(ctx, "failed to issue activation token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)))

	resp := api.SignupResponse{
		UserID:  user.ID,
		Message: "registration successful, check your email to activate the account",
	}

	sendJSON(h.logger, w, resp, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Аутентификация + привязка сессии к устройству
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		sendError(h.logger, w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found")
			sendError(h.logger, w, msgInvalidCredentials, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		h.logger.WarnContext(ctx, "login failed: wrong password", slog.String("user_id", user.ID))
		sendError(h.logger, w, msgInvalidCredentials, http.StatusBadRequest)
		return
	}

	if !user.IsVerified {
		h.logger.WarnContext(ctx, "login failed: email not verified", slog.String("user_id", user.ID))
		sendError(h.logger, w, msgEmailNotVerified, http.StatusUnauthorized)
		return
	}

	// Гейт роль × тип устройства
	deviceType := device.Classify(r.UserAgent())
	if !device.Allowed(user.Role, deviceType) {
		h.logger.WarnContext(ctx, "login rejected by device policy",
			slog.String("user_id", user.ID),
			slog.String("role", string(user.Role)),
			slog.String("device_type", string(deviceType)))
		sendError(h.logger, w, msgDeviceNotAllowed, http.StatusForbidden)
		return
	}

	payload := jwt.Payload{UserID: user.ID, Role: user.Role, DeviceType: deviceType}

	refreshToken, _, err := h.jwt.GenerateRefreshToken(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	deviceID, err := h.bindDevice(r, user.ID, refreshToken, deviceType)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to bind device", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	accessToken, _, err := h.jwt.GenerateAccessToken(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("device_id", deviceID),
		slog.String("device_type", string(deviceType)))

	h.setSessionCookies(w, refreshToken, deviceID)

	resp := api.LoginResponse{
		AccessToken: accessToken,
		DeviceID:    deviceID,
		User:        user,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// bindDevice привязывает refresh token к записи устройства.
// Если пришла cookie deviceId с записью этого же пользователя - одно
// условное обновление на месте, повторные входы не плодят записей.
// Иначе создается новая запись.
func (h *AuthHandler) bindDevice(r *http.Request, userID, refreshToken string, deviceType models.DeviceType) (string, error) {
	ctx := r.Context()
	now := time.Now()
	ip := clientIP(r)
	userAgent := r.UserAgent()

	if cookie, err := r.Cookie(DeviceIDCookie); err == nil && cookie.Value != "" {
		err := h.devices.RebindDevice(ctx, cookie.Value, userID, refreshToken, ip, userAgent, now)
		if err == nil {
			return cookie.Value, nil
		}
		if !errors.Is(err, storage.ErrDeviceNotFound) {
			return "", err
		}
		// Чужая или устаревшая cookie - заводим новую запись
	}

	newDevice := &models.Device{
		ID:             uuid.New().String(),
		UserID:         userID,
		RefreshToken:   refreshToken,
		IPAddress:      ip,
		UserAgent:      userAgent,
		DeviceType:     deviceType,
		LastAccessedAt: now,
		CreatedAt:      now,
	}

	if err := h.devices.CreateDevice(ctx, newDevice); err != nil {
		return "", err
	}

	return newDevice.ID, nil
}

// Refresh обрабатывает POST /api/v1/auth/refresh-token
// Ротация пары токенов по refresh cookie + device cookie
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshCookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || refreshCookie.Value == "" {
		sendError(h.logger, w, "refresh token cookie is required", http.StatusBadRequest)
		return
	}

	deviceCookie, err := r.Cookie(DeviceIDCookie)
	if err != nil || deviceCookie.Value == "" {
		sendError(h.logger, w, "device id cookie is required", http.StatusBadRequest)
		return
	}

	presented := refreshCookie.Value

	claims, err := h.jwt.ValidateRefreshToken(presented)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh failed: invalid token", slog.Any("error", err))
		sendError(h.logger, w, msgDeviceInvalid, http.StatusForbidden)
		return
	}

	payload := jwt.Payload{UserID: claims.UserID, Role: claims.Role, DeviceType: claims.DeviceType}

	newRefreshToken, _, err := h.jwt.GenerateRefreshToken(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Одно условное обновление: проигравший из двух конкурентных refresh
	// получает ErrDeviceNotFound, а не тихо перетирает чужую ротацию.
	// Несовпадение покрывает чужое устройство, уже ротированный токен и подделку.
	err = h.devices.RotateRefreshToken(ctx, deviceCookie.Value, claims.UserID, presented, newRefreshToken, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			h.logger.WarnContext(ctx, "refresh failed: device mismatch",
				slog.String("user_id", claims.UserID),
				slog.String("device_id", deviceCookie.Value))
			sendError(h.logger, w, msgDeviceInvalid, http.StatusForbidden)
			return
		}
		h.logger.ErrorContext(ctx, "failed to rotate refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	accessToken, _, err := h.jwt.GenerateAccessToken(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "tokens rotated",
		slog.String("user_id", claims.UserID),
		slog.String("device_id", deviceCookie.Value))

	h.setSessionCookies(w, newRefreshToken, deviceCookie.Value)

	sendJSON(h.logger, w, api.RefreshResponse{AccessToken: accessToken}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Удаляет запись устройства по предъявленному refresh токену.
// Идемпотентен: отсутствие cookie или записи - тоже успех.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		if err := h.devices.DeleteDeviceByToken(ctx, cookie.Value); err != nil {
			if !errors.Is(err, storage.ErrDeviceNotFound) {
				h.logger.ErrorContext(ctx, "failed to delete device", slog.Any("error", err))
				sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
				return
			}
		} else {
			h.logger.InfoContext(ctx, "device session revoked")
		}
	}

	h.clearSessionCookies(w)

	sendJSON(h.logger, w, api.MessageResponse{Message: "logged out"}, http.StatusOK)
}

// setSessionCookies выставляет пару cookie сессии.
// refreshToken закрыт от скриптов, deviceId читается клиентом.
func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, refreshToken, deviceID string) {
	maxAge := int(h.refreshTTL.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     DeviceIDCookie,
		Value:    deviceID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookies безусловно сбрасывает обе cookie
func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{RefreshTokenCookie, DeviceIDCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == RefreshTokenCookie,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
