package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hayatos/hayatos/internal/db"
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session configuration
const (
	DefaultSessionDuration = 30 * 24 * time.Hour
	TokenLength            = 32 // 256 bits of randomness per bearer token
)

// SessionService issues and validates bearer tokens. Tokens are random and
// stored hashed; the plaintext exists only in the login response and the
// client's local storage.
type SessionService struct {
	db       *db.SessionsDB
	duration time.Duration
}

// NewSessionService creates a new session service.
func NewSessionService(sessionsDB *db.SessionsDB, duration time.Duration) *SessionService {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &SessionService{
		db:       sessionsDB,
		duration: duration,
	}
}

// Create creates a new session for a user and returns the bearer token.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	now := time.Now()
	err = s.db.UpsertSession(ctx, db.Session{
		TokenHash: hashToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.duration).Unix(),
		CreatedAt: now.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// Validate checks if a bearer token is valid and returns the user ID.
func (s *SessionService) Validate(ctx context.Context, token string) (string, error) {
	session, err := s.db.GetValidSession(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}

	return session.UserID, nil
}

// Delete removes a session (logout).
func (s *SessionService) Delete(ctx context.Context, token string) error {
	if err := s.db.DeleteSession(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *SessionService) DeleteByUserID(ctx context.Context, userID string) error {
	if err := s.db.DeleteSessionsByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// Cleanup removes all expired sessions.
// This should be called periodically by a background goroutine.
func (s *SessionService) Cleanup(ctx context.Context) error {
	if err := s.db.DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return nil
}

// BearerFromRequest extracts the bearer token from the Authorization header.
func BearerFromRequest(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrSessionNotFound
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrSessionNotFound
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// Helper functions

func generateToken() (string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.URLEncoding.EncodeToString(hash[:])
}
