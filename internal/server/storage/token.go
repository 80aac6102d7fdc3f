package storage

import (
	"context"
	"time"

	"github.com/dsmelov/fitpro/internal/models"
)

// EphemeralTokenStorage defines interface for single-use token persistence
type EphemeralTokenStorage interface {
	// CreateEphemeralToken stores a new single-use token
	CreateEphemeralToken(ctx context.Context, token *models.EphemeralToken) error

	// ConsumeEphemeralToken atomically deletes the token matching
	// {token, kind, expires_at > now} and returns the deleted row.
	// The delete-if-matched semantics guarantee a token is consumed at most
	// once even under concurrent requests; the returned row lets the caller
	// put the token back if the follow-up write fails.
	// Returns ErrTokenNotFound if the token is absent, of a different kind,
	// already consumed or expired.
	ConsumeEphemeralToken(ctx context.Context, token string, kind models.TokenKind, now time.Time) (*models.EphemeralToken, error)

	// DeleteUserTokens deletes all ephemeral tokens of a user and kind.
	// Used to invalidate older reset links when a new one is requested.
	DeleteUserTokens(ctx context.Context, userID string, kind models.TokenKind) (int, error)

	// DeleteExpiredTokens removes all expired tokens
	// Returns number of deleted tokens
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}
