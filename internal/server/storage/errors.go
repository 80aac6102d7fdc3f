package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrDeviceNotFound indicates that no device record matched the lookup.
	// On refresh this covers a foreign device id, an already-rotated token
	// and plain tampering alike.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrTokenNotFound indicates that ephemeral token was not found,
	// already consumed or expired
	ErrTokenNotFound = errors.New("token not found")
)
