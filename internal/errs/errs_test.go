package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := New(NotFound, "note not found")
	wrapped := fmt.Errorf("loading note: %w", base)

	assert.Equal(t, NotFound, CodeOf(base))
	assert.Equal(t, NotFound, CodeOf(wrapped))
	assert.Equal(t, Internal, CodeOf(errors.New("raw")))
	assert.Equal(t, Internal, CodeOf(nil))
}

func TestMessageOfNeverLeaksRawErrors(t *testing.T) {
	raw := errors.New("dial tcp 10.0.0.1:5432: connection refused")
	assert.Equal(t, "internal error", MessageOf(raw))
	assert.Equal(t, "note not found", MessageOf(New(NotFound, "note not found")))
	assert.Equal(t, "invalid JSON body", MessageOf(Wrap(InvalidArgument, "invalid JSON body", raw)))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Unavailable, "upstream down", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		InvalidArgument:    http.StatusBadRequest,
		Unauthenticated:    http.StatusUnauthorized,
		PermissionDenied:   http.StatusForbidden,
		NotFound:           http.StatusNotFound,
		FailedPrecondition: http.StatusConflict,
		ResourceExhausted:  http.StatusTooManyRequests,
		Unavailable:        http.StatusServiceUnavailable,
		Internal:           http.StatusInternalServerError,
		Code("mystery"):    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}
