package logutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveLogField(t *testing.T) {
	for _, key := range []string{"Authorization", "X-Api-Key", "session_token", "COOKIE", "password"} {
		assert.True(t, IsSensitiveLogField(key), key)
	}
	for _, key := range []string{"Content-Type", "Accept", "X-Request-Id"} {
		assert.False(t, IsSensitiveLogField(key), key)
	}
}

func TestFormatHeadersForLog(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer supersecret")
	h.Set("Content-Type", "application/json")

	out := FormatHeadersForLog(h)
	assert.NotContains(t, out, "supersecret")
	assert.Contains(t, out, "Authorization=[REDACTED]")
	assert.Contains(t, out, "Content-Type=application/json")

	assert.Equal(t, "{}", FormatHeadersForLog(http.Header{}))
}
