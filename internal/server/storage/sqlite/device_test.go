package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsmelov/fitpro/internal/models"
	"github.com/dsmelov/fitpro/internal/server/storage"
)

func createTestDevice(t *testing.T, ctx context.Context, s *Storage, userID, token string) *models.Device {
	device := &models.Device{
		ID:             uuid.New().String(),
		UserID:         userID,
		RefreshToken:   token,
		IPAddress:      "192.0.2.1",
		UserAgent:      "test-agent",
		DeviceType:     models.DeviceMobile,
		LastAccessedAt: time.Now(),
		CreatedAt:      time.Now(),
	}

	err := s.CreateDevice(ctx, device)
	require.NoError(t, err)

	return device
}

func TestCreateDevice(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "token-1")

	got, err := s.GetDevice(ctx, device.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, device.RefreshToken, got.RefreshToken)
	assert.Equal(t, models.DeviceMobile, got.DeviceType)
	assert.Equal(t, "192.0.2.1", got.IPAddress)
}

func TestGetDevice_WrongOwner(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "token-1")

	// Запись существует, но принадлежит другому пользователю
	_, err := s.GetDevice(ctx, device.ID, otherID)
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestRebindDevice(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "token-1")

	now := time.Now().Add(time.Hour)
	err := s.RebindDevice(ctx, device.ID, userID, "token-2", "198.51.100.7", "new-agent", now)
	require.NoError(t, err)

	got, err := s.GetDevice(ctx, device.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "token-2", got.RefreshToken)
	assert.Equal(t, "198.51.100.7", got.IPAddress)
	assert.Equal(t, "new-agent", got.UserAgent)

	// Повторный вход не создает вторую запись
	devices, err := s.ListUserDevices(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestRebindDevice_ForeignDevice(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "token-1")

	err := s.RebindDevice(ctx, device.ID, otherID, "token-2", "ip", "ua", time.Now())
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "old-token")

	err := s.RotateRefreshToken(ctx, device.ID, userID, "old-token", "new-token", time.Now())
	require.NoError(t, err)

	got, err := s.GetDevice(ctx, device.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "new-token", got.RefreshToken)
}

func TestRotateRefreshToken_StaleToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "old-token")

	require.NoError(t, s.RotateRefreshToken(ctx, device.ID, userID, "old-token", "new-token", time.Now()))

	// Вторая ротация с уже замененным токеном обязана проиграть:
	// это и есть reuse detection
	err := s.RotateRefreshToken(ctx, device.ID, userID, "old-token", "newer-token", time.Now())
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)

	got, err := s.GetDevice(ctx, device.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "new-token", got.RefreshToken)
}

func TestRotateRefreshToken_ForeignDeviceID(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	createTestDevice(t, ctx, s, userID, "token-a")
	deviceB := createTestDevice(t, ctx, s, userID, "token-b")

	// Токен устройства A с id устройства B не подходит даже у одного владельца
	err := s.RotateRefreshToken(ctx, deviceB.ID, userID, "token-a", "new-token", time.Now())
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestDeleteDeviceByToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	device := createTestDevice(t, ctx, s, userID, "logout-token")

	err := s.DeleteDeviceByToken(ctx, "logout-token")
	require.NoError(t, err)

	_, err = s.GetDevice(ctx, device.ID, userID)
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)

	// Повторное удаление сообщает об отсутствии, идемпотентность решает handler
	err = s.DeleteDeviceByToken(ctx, "logout-token")
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestDeleteUserDevices(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	createTestDevice(t, ctx, s, userID, "token-1")
	createTestDevice(t, ctx, s, userID, "token-2")

	count, err := s.DeleteUserDevices(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	devices, err := s.ListUserDevices(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, devices)
}
