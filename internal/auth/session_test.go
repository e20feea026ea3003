package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	sessionsDB, err := testdb.NewSessionsDBInMemory()
	require.NoError(t, err)
	defer sessionsDB.DB().Close()
	svc := NewSessionService(sessionsDB, time.Hour)
	ctx := context.Background()

	token, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	// The plaintext token never lands in the database.
	var count int
	err = sessionsDB.DB().QueryRow(`SELECT COUNT(*) FROM sessions WHERE token_hash = ?`, token).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, svc.Delete(ctx, token))
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	sessionsDB, err := testdb.NewSessionsDBInMemory()
	require.NoError(t, err)
	defer sessionsDB.DB().Close()
	// Negative duration falls back to the default, so use a tiny positive
	// window and an already expired row written directly.
	svc := NewSessionService(sessionsDB, time.Hour)
	ctx := context.Background()

	token, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = sessionsDB.DB().Exec(`UPDATE sessions SET expires_at = ?`, time.Now().Add(-time.Minute).Unix())
	require.NoError(t, err)

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.Cleanup(ctx))
	var count int
	require.NoError(t, sessionsDB.DB().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestDeleteByUserIDRevokesAll(t *testing.T) {
	sessionsDB, err := testdb.NewSessionsDBInMemory()
	require.NoError(t, err)
	defer sessionsDB.DB().Close()
	svc := NewSessionService(sessionsDB, time.Hour)
	ctx := context.Background()

	t1, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)
	t2, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)
	other, err := svc.Create(ctx, "user-2")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByUserID(ctx, "user-1"))

	_, err = svc.Validate(ctx, t1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Validate(ctx, t2)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Validate(ctx, other)
	assert.NoError(t, err)
}

func TestBearerFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := BearerFromRequest(r)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	r.Header.Set("Authorization", "Basic abc")
	_, err = BearerFromRequest(r)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	r.Header.Set("Authorization", "Bearer tok-1")
	tok, err := BearerFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	assert.True(t, VerifyPassword("correct horse battery", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("correct horse battery", "garbage"))

	// Same password, different salt, different hash.
	hash2, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.ErrorIs(t, ValidatePasswordStrength("short"), ErrWeakPassword)
	assert.NoError(t, ValidatePasswordStrength("long enough password"))
}
