package auth

import (
	"context"
	"net/http"

	"github.com/hayatos/hayatos/internal/crypto"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/obs"
)

// Context keys for auth data
type contextKey string

const (
	userIDKey contextKey = "userID"
	userDBKey contextKey = "userDB"
)

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	sessionService *SessionService
	keyManager     *crypto.KeyManager
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(sessionService *SessionService, keyManager *crypto.KeyManager) *Middleware {
	return &Middleware{
		sessionService: sessionService,
		keyManager:     keyManager,
	}
}

// RequireAuth is middleware that requires a valid bearer token.
// Returns 401 Unauthorized if no valid token is present; the client reacts
// to any 401 by clearing its stored token and returning to the login screen.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		userID, err := m.sessionService.Validate(r.Context(), token)
		if err != nil {
			http.Error(w, "Unauthorized: invalid or expired token", http.StatusUnauthorized)
			return
		}

		// Open the user's encrypted database for the request
		dek, err := m.keyManager.GetOrCreateUserDEK(userID)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		userDB, err := db.OpenUserDBWithDEK(userID, dek)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, userDBKey, userDB)
		ctx = obs.WithUserID(ctx, userID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromRequest resolves the user ID for a request without requiring
// auth; used by the rate limiter ahead of the auth middleware.
func (m *Middleware) UserIDFromRequest(r *http.Request) string {
	token, err := BearerFromRequest(r)
	if err != nil {
		return ""
	}
	userID, err := m.sessionService.Validate(r.Context(), token)
	if err != nil {
		return ""
	}
	return userID
}

// GetUserID retrieves the user ID from the request context.
// Returns empty string if no user is authenticated.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// GetUserDB retrieves the user's database from the request context.
// Returns nil if no user is authenticated.
func GetUserDB(ctx context.Context) *db.UserDB {
	userDB, _ := ctx.Value(userDBKey).(*db.UserDB)
	return userDB
}

// IsAuthenticated checks if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}
