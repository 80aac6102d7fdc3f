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

// CreateEphemeralToken stores a new single-use token
func (s *Storage) CreateEphemeralToken(ctx context.Context, token *models.EphemeralToken) error {
	query := `
		INSERT INTO ephemeral_tokens (id, user_id, token, kind, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.Kind,
		token.ExpiresAt,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert ephemeral token: %w", err)
	}

	return nil
}

// ConsumeEphemeralToken atomically deletes the token and returns the deleted row.
// DELETE с условием и RETURNING в одном statement: два конкурентных
// предъявления одного токена не могут оба получить строку.
// Просроченный токен не удаляется здесь - его подберет DeleteExpiredTokens.
func (s *Storage) ConsumeEphemeralToken(ctx context.Context, token string, kind models.TokenKind, now time.Time) (*models.EphemeralToken, error) {
	query := `
		DELETE FROM ephemeral_tokens
		WHERE token = ? AND kind = ? AND expires_at > ?
		RETURNING id, user_id, token, kind, expires_at, created_at
	`

	var consumed models.EphemeralToken

	err := s.db.QueryRowContext(ctx, query, token, kind, now).Scan(
		&consumed.ID,
		&consumed.UserID,
		&consumed.Token,
		&consumed.Kind,
		&consumed.ExpiresAt,
		&consumed.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume ephemeral token: %w", err)
	}

	return &consumed, nil
}

// DeleteUserTokens deletes all ephemeral tokens of a user and kind
func (s *Storage) DeleteUserTokens(ctx context.Context, userID string, kind models.TokenKind) (int, error) {
	query := `DELETE FROM ephemeral_tokens WHERE user_id = ? AND kind = ?`

	result, err := s.db.ExecContext(ctx, query, userID, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredTokens removes all expired tokens
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM ephemeral_tokens WHERE expires_at <= ?`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
