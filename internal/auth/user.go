package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	stdtime "time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/hayatos/hayatos/internal/crypto"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/email"
	"github.com/hayatos/hayatos/internal/obs"
)

// Errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

/// Argon2id parameters (OWASP second recommendation: m=19456, t=2, p=1).
// Parameters are embedded in each hash string, so hashes created with other
// parameters still verify correctly.
const (
	argon2Time    = 2
	argon2Memory  = 19 * 1024 // ~19 MiB
	argon2Threads = 1
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// ResetTokenExpiry is how long a password reset token stays valid.
const ResetTokenExpiry = 15 * stdtime.Minute

// Clock abstracts time for testability.
type Clock interface {
	Now() stdtime.Time
}

// realClock implements Clock using the real system time.
type realClock struct{}

func (realClock) Now() stdtime.Time { return stdtime.Now() }

// User represents a user account.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   stdtime.Time
}

// UserService handles user management operations.
type UserService struct {
	db           *db.SessionsDB
	keyManager   *crypto.KeyManager
	emailService email.EmailService
	baseURL      string // Base URL for reset link generation
	clock        Clock
}

// NewUserService creates a new user service.
func NewUserService(sessionsDB *db.SessionsDB, keyManager *crypto.KeyManager, emailSvc email.EmailService, baseURL string) *UserService {
	return &UserService{
		db:           sessionsDB,
		keyManager:   keyManager,
		emailService: emailSvc,
		baseURL:      baseURL,
		clock:        realClock{},
	}
}

// SetClock replaces the clock used by the service. Intended for testing.
func (s *UserService) SetClock(c Clock) {
	s.clock = c
}

// Register creates a new account with email/password.
// Returns ErrAccountExists if an account record already exists in the user DB.
// Handles orphaned DEKs (DEK exists but no account record) by creating the account.
func (s *UserService) Register(ctx context.Context, emailAddr, password, displayName string) (*User, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	userID := generateUserID(emailAddr)

	// Get or create DEK (idempotent, safe even if DEK already exists)
	dek, err := s.keyManager.GetOrCreateUserDEK(userID)
	if err != nil {
		return nil, fmt.Errorf("get or create user DEK: %w", err)
	}

	userDB, err := db.OpenUserDBWithDEK(userID, dek)
	if err != nil {
		return nil, fmt.Errorf("open user DB: %w", err)
	}

	// Check if an account record actually exists (not just a DEK)
	_, err = userDB.GetAccountByEmail(ctx, emailAddr)
	if err == nil {
		return nil, ErrAccountExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check account existence: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	err = userDB.CreateAccount(ctx, db.Account{
		UserID:       userID,
		Email:        emailAddr,
		PasswordHash: sql.NullString{String: passwordHash, Valid: true},
		DisplayName:  sql.NullString{String: displayName, Valid: displayName != ""},
		CreatedAt:    now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	// Best effort, registration already succeeded.
	if err := s.emailService.Send(emailAddr, email.TemplateWelcome, email.WelcomeData{Name: displayName}); err != nil {
		obs.From(ctx).Warn("welcome_email_failed", "user_id", userID, "error", err)
	}

	obs.From(ctx).Info("user_registered", "user_id", userID)
	return &User{
		ID:          userID,
		Email:       emailAddr,
		DisplayName: displayName,
		CreatedAt:   now,
	}, nil
}

// VerifyLogin verifies email/password credentials for an existing account.
// Returns ErrInvalidCredentials if the user doesn't exist or the password is wrong.
func (s *UserService) VerifyLogin(ctx context.Context, emailAddr, password string) (*User, error) {
	userID := generateUserID(emailAddr)

	dek, err := s.keyManager.GetUserDEK(userID)
	if err != nil {
		if errors.Is(err, crypto.ErrUserKeyNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user DEK: %w", err)
	}

	userDB, err := db.OpenUserDBWithDEK(userID, dek)
	if err != nil {
		return nil, fmt.Errorf("open user DB: %w", err)
	}

	account, err := userDB.GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if !account.PasswordHash.Valid || account.PasswordHash.String == "" {
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, account.PasswordHash.String) {
		return nil, ErrInvalidCredentials
	}

	_ = userDB.TouchLastLogin(ctx, userID, s.clock.Now().Unix())

	return &User{
		ID:          userID,
		Email:       emailAddr,
		DisplayName: account.DisplayName.String,
		CreatedAt:   stdtime.Unix(account.CreatedAt, 0),
	}, nil
}

// Me loads the account profile for an authenticated user.
func (s *UserService) Me(ctx context.Context, userDB *db.UserDB) (*User, error) {
	account, err := userDB.GetAccount(ctx, userDB.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &User{
		ID:          account.UserID,
		Email:       account.Email,
		DisplayName: account.DisplayName.String,
		CreatedAt:   stdtime.Unix(account.CreatedAt, 0),
	}, nil
}

// SendPasswordReset sends a password reset email. Always succeeds from the
// caller's perspective even for unknown emails, to prevent enumeration.
func (s *UserService) SendPasswordReset(ctx context.Context, emailAddr string) error {
	token, err := generateSecureToken(32)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	userID := generateUserID(emailAddr)

	now := s.clock.Now()
	err = s.db.UpsertResetToken(ctx, db.ResetToken{
		TokenHash: hashToken(token),
		Email:     emailAddr,
		UserID:    sql.NullString{String: userID, Valid: true},
		ExpiresAt: now.Add(ResetTokenExpiry).Unix(),
		CreatedAt: now.Unix(),
	})
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/auth/password-reset-confirm?token=%s", s.baseURL, token)
	err = s.emailService.Send(emailAddr, email.TemplatePasswordReset, email.PasswordResetData{
		Link:      link,
		ExpiresIn: "15 minutes",
	})
	if err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	return nil
}

// verifyResetToken verifies and consumes a password reset token.
func (s *UserService) verifyResetToken(ctx context.Context, token string) (*User, error) {
	tokenHash := hashToken(token)

	// Look up without SQL-level time filtering so the clock is testable
	resetToken, err := s.db.GetResetToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}

	if resetToken.ExpiresAt <= s.clock.Now().Unix() {
		_ = s.db.DeleteResetToken(ctx, tokenHash)
		return nil, ErrInvalidToken
	}

	if err := s.db.DeleteResetToken(ctx, tokenHash); err != nil {
		return nil, fmt.Errorf("delete reset token: %w", err)
	}

	return &User{
		ID:        resetToken.UserID.String,
		Email:     resetToken.Email,
		CreatedAt: stdtime.Unix(resetToken.CreatedAt, 0),
	}, nil
}

// ResetPassword resets a user's password using a reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := s.verifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	dek, err := s.keyManager.GetUserDEK(user.ID)
	if err != nil {
		return fmt.Errorf("get user DEK: %w", err)
	}

	userDB, err := db.OpenUserDBWithDEK(user.ID, dek)
	if err != nil {
		return fmt.Errorf("open user DB: %w", err)
	}

	if err := userDB.UpdateAccountPasswordHash(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	// Changing the password invalidates all outstanding sessions.
	if err := s.db.DeleteSessionsByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	return nil
}

// ValidatePasswordStrength checks if a password meets minimum requirements.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword hashes a password using Argon2id.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, encodedSalt, encodedHash), nil
}

// VerifyPassword checks if a password matches a hash.
func VerifyPassword(password, encodedHash string) bool {
	// Format: $argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	if parts[1] != "argon2id" {
		return false
	}

	if parts[2] != "v=19" {
		return false
	}

	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false
	}

	saltBytes, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	hashBytes, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	hashLen := len(hashBytes)
	if hashLen <= 0 || hashLen > argon2KeyLen*2 {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), saltBytes, time, memory, threads, uint32(hashLen))

	return subtle.ConstantTimeCompare(hashBytes, computedHash) == 1
}

// Helper functions

func generateUserID(email string) string {
	return "user-" + uuid.NewSHA1(uuid.NameSpaceDNS, []byte(email)).String()
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
