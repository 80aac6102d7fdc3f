package storage

import (
	"context"
	"time"

	"github.com/dsmelov/fitpro/internal/models"
)

// DeviceStorage defines interface for device record persistence.
// A device record is the single source of truth for session validity:
// while a record exists the session is live, deleting it revokes the session.
type DeviceStorage interface {
	// CreateDevice inserts a new device record (first login from a device)
	CreateDevice(ctx context.Context, device *models.Device) error

	// GetDevice retrieves a device by id scoped to its owner
	// Returns ErrDeviceNotFound if no such record exists
	GetDevice(ctx context.Context, deviceID, userID string) (*models.Device, error)

	// RebindDevice updates refresh token and network metadata of an existing
	// record in a single conditional update keyed by {id, user_id}.
	// Used on repeated logins from a known device so records don't proliferate.
	// Returns ErrDeviceNotFound if the record doesn't belong to the user.
	RebindDevice(ctx context.Context, deviceID, userID, refreshToken, ip, userAgent string, now time.Time) error

	// RotateRefreshToken atomically replaces oldToken with newToken in the
	// record matching {id, user_id, refresh_token=oldToken} and bumps
	// last_accessed_at. The single conditional update is what prevents two
	// concurrent refreshes from both observing the old token: exactly one
	// caller wins, the other gets ErrDeviceNotFound.
	RotateRefreshToken(ctx context.Context, deviceID, userID, oldToken, newToken string, now time.Time) error

	// DeleteDeviceByToken deletes the record holding the given refresh token
	// Returns ErrDeviceNotFound if no record matched
	DeleteDeviceByToken(ctx context.Context, refreshToken string) error

	// ListUserDevices retrieves all device records of a user,
	// most recently used first
	ListUserDevices(ctx context.Context, userID string) ([]*models.Device, error)

	// DeleteUserDevices deletes all device records of a user
	// Returns number of deleted records
	DeleteUserDevices(ctx context.Context, userID string) (int, error)
}
