package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is a stored bearer-token session.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

// ResetToken is a stored single-use password reset token.
type ResetToken struct {
	TokenHash string
	Email     string
	UserID    sql.NullString
	ExpiresAt int64
	CreatedAt int64
}

// UserKey is a stored encrypted DEK record.
type UserKey struct {
	UserID       string
	KekVersion   int64
	EncryptedDek []byte
	CreatedAt    int64
	RotatedAt    sql.NullInt64
}

// UpsertSession stores or refreshes a session row.
func (s *SessionsDB) UpsertSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token_hash) DO UPDATE SET expires_at = excluded.expires_at
	`, sess.TokenHash, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetValidSession returns the session for the token hash if it has not expired.
// Returns sql.ErrNoRows when missing or expired.
func (s *SessionsDB) GetValidSession(ctx context.Context, tokenHash string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token_hash, user_id, expires_at, created_at
		FROM sessions
		WHERE token_hash = ? AND expires_at > ?
	`, tokenHash, time.Now().Unix()).Scan(&sess.TokenHash, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// DeleteSession removes a single session (logout).
func (s *SessionsDB) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteSessionsByUserID removes all sessions for a user.
func (s *SessionsDB) DeleteSessionsByUserID(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is in the past.
func (s *SessionsDB) DeleteExpiredSessions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix()); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

// UpsertResetToken stores a password reset token, replacing any prior token
// with the same hash.
func (s *SessionsDB) UpsertResetToken(ctx context.Context, tok ResetToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reset_tokens (token_hash, email, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token_hash) DO UPDATE SET
			email = excluded.email,
			user_id = excluded.user_id,
			expires_at = excluded.expires_at
	`, tok.TokenHash, tok.Email, tok.UserID, tok.ExpiresAt, tok.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert reset token: %w", err)
	}
	return nil
}

// GetResetToken fetches a reset token without time filtering so expiry can
// be checked against an injectable clock.
func (s *SessionsDB) GetResetToken(ctx context.Context, tokenHash string) (ResetToken, error) {
	var tok ResetToken
	err := s.db.QueryRowContext(ctx, `
		SELECT token_hash, email, user_id, expires_at, created_at
		FROM reset_tokens WHERE token_hash = ?
	`, tokenHash).Scan(&tok.TokenHash, &tok.Email, &tok.UserID, &tok.ExpiresAt, &tok.CreatedAt)
	if err != nil {
		return ResetToken{}, err
	}
	return tok, nil
}

// DeleteResetToken consumes a reset token.
func (s *SessionsDB) DeleteResetToken(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}

// CreateUserKey stores a new encrypted DEK for a user.
func (s *SessionsDB) CreateUserKey(ctx context.Context, key UserKey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_keys (user_id, kek_version, encrypted_dek, created_at)
		VALUES (?, ?, ?, ?)
	`, key.UserID, key.KekVersion, key.EncryptedDek, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user key: %w", err)
	}
	return nil
}

// GetUserKey fetches the encrypted DEK record for a user.
func (s *SessionsDB) GetUserKey(ctx context.Context, userID string) (UserKey, error) {
	var key UserKey
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, kek_version, encrypted_dek, created_at, rotated_at
		FROM user_keys WHERE user_id = ?
	`, userID).Scan(&key.UserID, &key.KekVersion, &key.EncryptedDek, &key.CreatedAt, &key.RotatedAt)
	if err != nil {
		return UserKey{}, err
	}
	return key, nil
}

// UpdateUserKey replaces the encrypted DEK after a KEK rotation.
func (s *SessionsDB) UpdateUserKey(ctx context.Context, key UserKey) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_keys SET kek_version = ?, encrypted_dek = ?, rotated_at = ?
		WHERE user_id = ?
	`, key.KekVersion, key.EncryptedDek, key.RotatedAt, key.UserID)
	if err != nil {
		return fmt.Errorf("update user key: %w", err)
	}
	return nil
}
