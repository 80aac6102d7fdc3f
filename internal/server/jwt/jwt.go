package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dsmelov/fitpro/internal/models"
)

// Claims представляет JWT claims для нашего приложения
type Claims struct {
	UserID     string            `json:"user_id"`
	Role       models.Role       `json:"role"`
	DeviceType models.DeviceType `json:"device_type"`
	jwt.RegisteredClaims
}

// Config содержит конфигурацию для JWT.
// Секреты читаются один раз при старте и дальше не меняются.
type Config struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service выпускает и проверяет access и refresh токены.
// Access token подписывается access-секретом, refresh token - отдельным
// refresh-секретом, поэтому токены одного класса нельзя предъявить вместо другого.
type Service struct {
	cfg Config
}

// NewService создает новый JWT service
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Payload содержит данные, попадающие в claims обоих токенов
type Payload struct {
	UserID     string
	Role       models.Role
	DeviceType models.DeviceType
}

// GenerateAccessToken создает новый JWT access token
// Возвращает токен и время жизни в секундах
func (s *Service) GenerateAccessToken(p Payload) (string, int64, error) {
	token, err := s.generate(p, s.cfg.AccessSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// GenerateRefreshToken создает новый JWT refresh token
// Возвращает токен и время его истечения
func (s *Service) GenerateRefreshToken(p Payload) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.cfg.RefreshTokenTTL)

	token, err := s.generate(p, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return token, expiresAt, nil
}

// ValidateAccessToken валидирует и парсит JWT access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.cfg.AccessSecret)
}

// ValidateRefreshToken валидирует и парсит JWT refresh token
func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.cfg.RefreshSecret)
}

func (s *Service) generate(p Payload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:     p.UserID,
		Role:       p.Role,
		DeviceType: p.DeviceType,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает каждый выпущенный токен уникальным, даже при
			// двух ротациях внутри одной секунды
			ID:        uuid.New().String(),
			Subject:   p.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "fitpro",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
