// Package crypto provides envelope encryption for per-user database keys.
// It implements a two-tier key hierarchy:
// - KEK (Key Encryption Key): derived from the master key using HKDF-SHA256
// - DEK (Data Encryption Key): random 32-byte key encrypted with the KEK using AES-256-GCM
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// DEKSize is the size of a Data Encryption Key in bytes (256 bits)
	DEKSize = 32

	// KEKSize is the size of a Key Encryption Key in bytes (256 bits)
	KEKSize = 32

	// NonceSize is the size of the AES-GCM nonce in bytes (96 bits)
	NonceSize = 12
)

// DeriveKEK derives a Key Encryption Key from a master key using HKDF-SHA256.
// The info parameter combines user ID and version for domain separation:
// info = "user:" + userID + ":v" + version
func DeriveKEK(masterKey []byte, userID string, version int) []byte {
	info := fmt.Sprintf("user:%s:v%d", userID, version)

	// Salt is nil - a random master key is sufficient for our use case
	hkdfReader := hkdf.New(sha256.New, masterKey, nil, []byte(info))

	kek := make([]byte, KEKSize)
	if _, err := io.ReadFull(hkdfReader, kek); err != nil {
		// HKDF should never fail to produce output for valid inputs
		panic(fmt.Sprintf("HKDF failed: %v", err))
	}

	return kek
}

// GenerateDEK generates a new random Data Encryption Key.
func GenerateDEK() ([]byte, error) {
	dek := make([]byte, DEKSize)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("failed to generate DEK: %w", err)
	}
	return dek, nil
}

// EncryptDEK encrypts a DEK using AES-256-GCM with the provided KEK.
// Output format: nonce (12 bytes) || ciphertext || auth tag (16 bytes)
func EncryptDEK(kek, dek []byte) ([]byte, error) {
	if len(kek) != KEKSize {
		return nil, fmt.Errorf("KEK must be %d bytes, got %d", KEKSize, len(kek))
	}
	if len(dek) != DEKSize {
		return nil, fmt.Errorf("DEK must be %d bytes, got %d", DEKSize, len(dek))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, dek, nil)
	result := make([]byte, len(nonce)+len(ciphertext))
	copy(result, nonce)
	copy(result[len(nonce):], ciphertext)

	return result, nil
}

// DecryptDEK decrypts an encrypted DEK using AES-256-GCM with the provided KEK.
// Expects the input format: nonce (12 bytes) || ciphertext || auth tag (16 bytes)
func DecryptDEK(kek, encryptedDEK []byte) ([]byte, error) {
	if len(kek) != KEKSize {
		return nil, fmt.Errorf("KEK must be %d bytes, got %d", KEKSize, len(kek))
	}

	// Minimum size: nonce (12) + auth tag (16)
	if len(encryptedDEK) < NonceSize+16 {
		return nil, fmt.Errorf("encrypted DEK too short: got %d bytes, need at least %d", len(encryptedDEK), NonceSize+16)
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := encryptedDEK[:NonceSize]
	ciphertext := encryptedDEK[NonceSize:]

	dek, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt DEK: %w", err)
	}

	return dek, nil
}
