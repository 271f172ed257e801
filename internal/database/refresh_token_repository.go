package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

// RefreshTokenRepository handles refresh token database operations
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// DeviceInfo describes the client a refresh token was issued to
type DeviceInfo struct {
	DeviceType string
	DeviceOS   string
	IPAddress  string
	UserAgent  string
}

// StoreRefreshToken stores the hash of a refresh token
func (r *RefreshTokenRepository) StoreRefreshToken(userID uuid.UUID, token string, device DeviceInfo, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (
			user_id, token_hash, device_type, device_os,
			ip_address, user_agent, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		query,
		userID,
		hashToken(token),
		models.NewNullString(device.DeviceType),
		models.NewNullString(device.DeviceOS),
		models.NewNullString(device.IPAddress),
		models.NewNullString(device.UserAgent),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token by its hash
func (r *RefreshTokenRepository) GetRefreshToken(token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken

	query := `
		SELECT id, user_id, token_hash, device_type, device_os,
		       ip_address, user_agent, created_at, expires_at,
		       last_used_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	err := r.db.Get(&refreshToken, query, hashToken(token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &refreshToken, nil
}

// RevokeToken revokes a specific refresh token
func (r *RefreshTokenRepository) RevokeToken(token string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = $1
		WHERE token_hash = $2 AND revoked = FALSE
	`

	result, err := r.db.Exec(query, time.Now(), hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *RefreshTokenRepository) RevokeAllUserTokens(userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    revoked_at = $1
		WHERE user_id = $2 AND revoked = FALSE
	`

	_, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}

	return nil
}

// ListActiveForUser returns the user's unrevoked, unexpired sessions, newest first
func (r *RefreshTokenRepository) ListActiveForUser(userID uuid.UUID) ([]*models.RefreshToken, error) {
	sessions := []*models.RefreshToken{}
	query := `
		SELECT id, user_id, token_hash, device_type, device_os,
		       ip_address, user_agent, created_at, expires_at,
		       last_used_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2
		ORDER BY created_at DESC
	`

	if err := r.db.Select(&sessions, query, userID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// RevokeSession revokes one of the user's sessions by id
func (r *RefreshTokenRepository) RevokeSession(userID, sessionID uuid.UUID) error {
	result, err := r.db.Exec(`
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE id = $2 AND user_id = $3 AND revoked = FALSE
	`, time.Now(), sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CleanupExpiredTokens removes expired refresh tokens. Revoked tokens are kept
// until expiry so a replayed token can still be recognised.
func (r *RefreshTokenRepository) CleanupExpiredTokens() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
