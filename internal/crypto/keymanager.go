package crypto

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hayatos/hayatos/internal/db"
)

// ErrUserKeyNotFound is returned when a user's key entry does not exist
var ErrUserKeyNotFound = errors.New("user key not found")

// KeyManager handles envelope encryption for user database keys.
// It manages KEK derivation from a master key and DEK creation/retrieval.
type KeyManager struct {
	masterKey []byte
	db        *db.SessionsDB
}

// NewKeyManager creates a new KeyManager with the provided master key and
// sessions database. The master key must be high-entropy, at least 32 bytes.
func NewKeyManager(masterKey []byte, db *db.SessionsDB) *KeyManager {
	return &KeyManager{
		masterKey: masterKey,
		db:        db,
	}
}

// GetOrCreateUserDEK retrieves the DEK for a user, creating one if it doesn't exist.
// On first call for a user, generates a new DEK, encrypts it with the KEK, and stores it.
// On subsequent calls, retrieves and decrypts the stored DEK.
func (km *KeyManager) GetOrCreateUserDEK(userID string) ([]byte, error) {
	ctx := context.Background()

	userKey, err := km.db.GetUserKey(ctx, userID)
	if err == nil {
		kek := DeriveKEK(km.masterKey, userID, int(userKey.KekVersion))
		return DecryptDEK(kek, userKey.EncryptedDek)
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get user key: %w", err)
	}

	dek, err := GenerateDEK()
	if err != nil {
		return nil, fmt.Errorf("failed to generate DEK: %w", err)
	}

	kekVersion := 1
	kek := DeriveKEK(km.masterKey, userID, kekVersion)
	encryptedDEK, err := EncryptDEK(kek, dek)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	err = km.db.CreateUserKey(ctx, db.UserKey{
		UserID:       userID,
		KekVersion:   int64(kekVersion),
		EncryptedDek: encryptedDEK,
		CreatedAt:    time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store user key: %w", err)
	}

	return dek, nil
}

// GetUserDEK retrieves the DEK for an existing user.
// Unlike GetOrCreateUserDEK, this returns ErrUserKeyNotFound if the user has no key.
func (km *KeyManager) GetUserDEK(userID string) ([]byte, error) {
	ctx := context.Background()

	userKey, err := km.db.GetUserKey(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserKeyNotFound
		}
		return nil, fmt.Errorf("failed to get user key: %w", err)
	}

	kek := DeriveKEK(km.masterKey, userID, int(userKey.KekVersion))
	dek, err := DecryptDEK(kek, userKey.EncryptedDek)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt DEK: %w", err)
	}

	return dek, nil
}

// RotateUserKEK rotates the KEK for a user by incrementing the version.
// This re-encrypts the existing DEK with a new KEK derived using version+1.
// The DEK itself remains unchanged, only its encryption key changes.
func (km *KeyManager) RotateUserKEK(userID string) error {
	ctx := context.Background()

	userKey, err := km.db.GetUserKey(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserKeyNotFound
		}
		return fmt.Errorf("failed to get user key: %w", err)
	}

	currentKEK := DeriveKEK(km.masterKey, userID, int(userKey.KekVersion))
	dek, err := DecryptDEK(currentKEK, userKey.EncryptedDek)
	if err != nil {
		return fmt.Errorf("failed to decrypt current DEK: %w", err)
	}

	newVersion := userKey.KekVersion + 1
	newKEK := DeriveKEK(km.masterKey, userID, int(newVersion))
	newEncryptedDEK, err := EncryptDEK(newKEK, dek)
	if err != nil {
		return fmt.Errorf("failed to encrypt DEK with new KEK: %w", err)
	}

	err = km.db.UpdateUserKey(ctx, db.UserKey{
		UserID:       userID,
		KekVersion:   newVersion,
		EncryptedDek: newEncryptedDEK,
		RotatedAt:    sql.NullInt64{Int64: time.Now().Unix(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to update user key: %w", err)
	}

	return nil
}
