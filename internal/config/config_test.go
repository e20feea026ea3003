package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MASTER_KEY", validMasterKey)

	cfg, err := LoadConfig(true, "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, float64(25), cfg.RateLimitConfig.RPS)
	assert.Equal(t, 50, cfg.RateLimitConfig.Burst)
	assert.True(t, cfg.NoEmail)
}

func TestAddrFlagOverridesEnv(t *testing.T) {
	t.Setenv("MASTER_KEY", validMasterKey)
	t.Setenv("LISTEN_ADDR", ":9000")

	cfg, err := LoadConfig(true, ":7000")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MASTER_KEY", validMasterKey)
	t.Setenv("DATA_DIR", "/var/lib/hayatos")
	t.Setenv("SESSION_DURATION", "24h")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := LoadConfig(true, "")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/hayatos", cfg.DataDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 5.5, cfg.RateLimitConfig.RPS)
	assert.Equal(t, 10, cfg.RateLimitConfig.Burst)
}

func TestValidateCollectsAllIssues(t *testing.T) {
	t.Setenv("MASTER_KEY", "")

	_, err := LoadConfig(false, "")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2, "missing master key and missing resend key reported together")
	assert.True(t, strings.Contains(verr.Error(), "MASTER_KEY"))
	assert.True(t, strings.Contains(verr.Error(), "RESEND_API_KEY"))
}

func TestValidateMasterKeyLength(t *testing.T) {
	t.Setenv("MASTER_KEY", "deadbeef")

	_, err := LoadConfig(true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "64 hex characters")
}

func TestBadEnvValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("MASTER_KEY", validMasterKey)
	t.Setenv("SESSION_DURATION", "not-a-duration")
	t.Setenv("RATE_LIMIT_BURST", "many")

	cfg, err := LoadConfig(true, "")
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 50, cfg.RateLimitConfig.Burst)
}
