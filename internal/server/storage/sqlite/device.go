package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dsmelov/fitpro/internal/models"
	"github.com/dsmelov/fitpro/internal/server/storage"
)

// CreateDevice inserts a new device record
func (s *Storage) CreateDevice(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (id, user_id, refresh_token, ip_address, user_agent, device_type, last_accessed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		device.ID,
		device.UserID,
		device.RefreshToken,
		device.IPAddress,
		device.UserAgent,
		device.DeviceType,
		device.LastAccessedAt,
		device.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}

	return nil
}

// GetDevice retrieves a device by id scoped to its owner
func (s *Storage) GetDevice(ctx context.Context, deviceID, userID string) (*models.Device, error) {
	query := `
		SELECT id, user_id, refresh_token, ip_address, user_agent, device_type, last_accessed_at, created_at
		FROM devices
		WHERE id = ? AND user_id = ?
	`

	device := &models.Device{}

	err := s.db.QueryRowContext(ctx, query, deviceID, userID).Scan(
		&device.ID,
		&device.UserID,
		&device.RefreshToken,
		&device.IPAddress,
		&device.UserAgent,
		&device.DeviceType,
		&device.LastAccessedAt,
		&device.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return device, nil
}

// RebindDevice updates refresh token and network metadata of an existing record.
// Single conditional update keyed by {id, user_id}: повторный вход с известного
// устройства не плодит новых записей.
func (s *Storage) RebindDevice(ctx context.Context, deviceID, userID, refreshToken, ip, userAgent string, now time.Time) error {
	query := `
		UPDATE devices
		SET refresh_token = ?, ip_address = ?, user_agent = ?, last_accessed_at = ?
		WHERE id = ? AND user_id = ?
	`

	return s.execDeviceUpdate(ctx, query, refreshToken, ip, userAgent, now, deviceID, userID)
}

// RotateRefreshToken atomically replaces oldToken with newToken.
// Условие WHERE включает старый токен: из двух конкурентных ротаций одна
// гарантированно получает ErrDeviceNotFound вместо тихой потери сессии.
func (s *Storage) RotateRefreshToken(ctx context.Context, deviceID, userID, oldToken, newToken string, now time.Time) error {
	query := `
		UPDATE devices
		SET refresh_token = ?, last_accessed_at = ?
		WHERE id = ? AND user_id = ? AND refresh_token = ?
	`

	return s.execDeviceUpdate(ctx, query, newToken, now, deviceID, userID, oldToken)
}

// DeleteDeviceByToken deletes the record holding the given refresh token
func (s *Storage) DeleteDeviceByToken(ctx context.Context, refreshToken string) error {
	query := `DELETE FROM devices WHERE refresh_token = ?`

	return s.execDeviceUpdate(ctx, query, refreshToken)
}

// ListUserDevices retrieves all device records of a user
func (s *Storage) ListUserDevices(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `
		SELECT id, user_id, refresh_token, ip_address, user_agent, device_type, last_accessed_at, created_at
		FROM devices
		WHERE user_id = ?
		ORDER BY last_accessed_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user devices: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var devices []*models.Device

	for rows.Next() {
		device := &models.Device{}
		if err := rows.Scan(
			&device.ID,
			&device.UserID,
			&device.RefreshToken,
			&device.IPAddress,
			&device.UserAgent,
			&device.DeviceType,
			&device.LastAccessedAt,
			&device.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return devices, nil
}

// DeleteUserDevices deletes all device records of a user
func (s *Storage) DeleteUserDevices(ctx context.Context, userID string) (int, error) {
	query := `DELETE FROM devices WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user devices: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

func (s *Storage) execDeviceUpdate(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrDeviceNotFound
	}

	return nil
}
