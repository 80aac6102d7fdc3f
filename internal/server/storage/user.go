package storage

import (
	"context"

	"github.com/dsmelov/fitpro/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email is already taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// ListUsers retrieves all users ordered by creation time
	ListUsers(ctx context.Context) ([]*models.User, error)

	// SetVerified marks the user's email as verified
	// Returns ErrUserNotFound if user doesn't exist
	SetVerified(ctx context.Context, userID string) error

	// UpdatePassword replaces the user's password hash
	// Returns ErrUserNotFound if user doesn't exist
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// DeleteUser deletes user by ID together with owned devices and
	// ephemeral tokens (cascade)
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error
}
