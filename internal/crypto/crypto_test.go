package crypto

import (
	"bytes"
	"testing"

	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMasterKey = []byte("0123456789abcdef0123456789abcdef")

func TestDEKEnvelopeRoundTrip(t *testing.T) {
	kek := DeriveKEK(testMasterKey, "user-1", 1)
	dek, err := GenerateDEK()
	require.NoError(t, err)
	require.Len(t, dek, 32)

	sealed, err := EncryptDEK(kek, dek)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, dek), "plaintext DEK must not appear in the envelope")

	opened, err := DecryptDEK(kek, sealed)
	require.NoError(t, err)
	assert.Equal(t, dek, opened)

	// A different KEK cannot open the envelope.
	otherKEK := DeriveKEK(testMasterKey, "user-2", 1)
	_, err = DecryptDEK(otherKEK, sealed)
	assert.Error(t, err)
}

func TestDeriveKEKIsDeterministicPerUserAndVersion(t *testing.T) {
	a := DeriveKEK(testMasterKey, "user-1", 1)
	b := DeriveKEK(testMasterKey, "user-1", 1)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, DeriveKEK(testMasterKey, "user-2", 1))
	assert.NotEqual(t, a, DeriveKEK(testMasterKey, "user-1", 2))
}

func TestKeyManagerCreateAndFetch(t *testing.T) {
	sessionsDB, err := testdb.NewSessionsDBInMemory()
	require.NoError(t, err)
	defer sessionsDB.DB().Close()
	km := NewKeyManager(testMasterKey, sessionsDB)

	_, err = km.GetUserDEK("user-1")
	assert.ErrorIs(t, err, ErrUserKeyNotFound)

	dek, err := km.GetOrCreateUserDEK("user-1")
	require.NoError(t, err)
	require.Len(t, dek, 32)

	// Idempotent: the same DEK comes back.
	again, err := km.GetOrCreateUserDEK("user-1")
	require.NoError(t, err)
	assert.Equal(t, dek, again)

	fetched, err := km.GetUserDEK("user-1")
	require.NoError(t, err)
	assert.Equal(t, dek, fetched)
}

func TestRotateUserKEKKeepsDEK(t *testing.T) {
	sessionsDB, err := testdb.NewSessionsDBInMemory()
	require.NoError(t, err)
	defer sessionsDB.DB().Close()
	km := NewKeyManager(testMasterKey, sessionsDB)

	dek, err := km.GetOrCreateUserDEK("user-1")
	require.NoError(t, err)

	require.NoError(t, km.RotateUserKEK("user-1"))

	after, err := km.GetUserDEK("user-1")
	require.NoError(t, err)
	assert.Equal(t, dek, after, "rotation re-wraps the same DEK")
}
