package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/auth"
	"github.com/hayatos/hayatos/internal/calendar"
	"github.com/hayatos/hayatos/internal/client"
	"github.com/hayatos/hayatos/internal/crypto"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/email"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/finance"
	"github.com/hayatos/hayatos/internal/habits"
	"github.com/hayatos/hayatos/internal/health"
	"github.com/hayatos/hayatos/internal/islamic"
	"github.com/hayatos/hayatos/internal/notes"
	"github.com/hayatos/hayatos/internal/reminders"
	"github.com/hayatos/hayatos/internal/settings"
	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailSeq atomic.Int64

// uniqueEmail avoids colliding with user databases cached by earlier tests.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", prefix, time.Now().UnixNano(), emailSeq.Add(1))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db.DataDirectory = t.TempDir()
	t.Cleanup(db.ResetForTesting)

	sessionsDB, err := testdb.NewSessionsDBInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { sessionsDB.DB().Close() })

	masterKey := []byte("0123456789abcdef0123456789abcdef")
	keyManager := crypto.NewKeyManager(masterKey, sessionsDB)
	sessionSvc := auth.NewSessionService(sessionsDB, time.Hour)
	userSvc := auth.NewUserService(sessionsDB, keyManager, email.NewMockEmailService(), "http://test.local")
	mw := auth.NewMiddleware(sessionSvc, keyManager)

	server := &Server{
		Users:     userSvc,
		Sessions:  sessionSvc,
		Notes:     notes.NewService(),
		Reminders: reminders.NewService(),
		Habits:    habits.NewService(),
		Health:    health.NewService(),
		Calendar:  calendar.NewService(),
		Finance:   finance.NewService(),
		Islamic:   islamic.NewService(),
		Settings:  settings.NewService(),
	}

	mux := http.NewServeMux()
	server.RegisterRoutes(mux, mw)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	addr := uniqueEmail("auth")
	require.NoError(t, c.Register(ctx, addr, "a strong password", "Amina"))
	require.NotEmpty(t, c.Token())

	// /me round-trips the account.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.Token())
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var me struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&me))
	assert.Equal(t, addr, me.Email)
	assert.Equal(t, "Amina", me.DisplayName)

	// Duplicate registration is rejected.
	err = client.New(srv.URL).Register(ctx, addr, "a strong password", "")
	assert.Equal(t, errs.FailedPrecondition, errs.CodeOf(err))

	// Wrong password is a 401.
	err = client.New(srv.URL).Login(ctx, addr, "not the password")
	assert.Equal(t, errs.Unauthenticated, errs.CodeOf(err))

	// Logout revokes the session.
	token := c.Token()
	require.NoError(t, c.Logout(ctx))
	req2, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/auth/me", nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	res2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res2.StatusCode)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/notes", "/api/habits", "/api/finance/accounts", "/api/settings"} {
		res, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
	}
}

func TestNotesEndToEndWithOptimisticStore(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, uniqueEmail("notes"), "a strong password", ""))

	store := client.NewStore(c, "/api/notes",
		func(n notes.Note) string { return n.ID },
		func(n notes.Note, id string) notes.Note { n.ID = id; return n })

	require.NoError(t, store.Load(ctx))
	assert.Empty(t, store.Entities())

	require.NoError(t, store.Create(ctx, notes.Note{Title: "Dua list", Content: "- morning\n- evening"}))
	got := store.Entities()
	require.Len(t, got, 1)
	assert.False(t, client.IsTempID(got[0].ID), "server ID reconciled in")
	assert.Equal(t, "Dua list", got[0].Title)

	// A server-rejected create rolls back cleanly.
	err := store.Create(ctx, notes.Note{})
	require.Error(t, err)
	assert.Len(t, store.Entities(), 1, "temp entity removed after failure")

	require.NoError(t, store.Delete(ctx, got[0].ID))
	assert.Empty(t, store.Entities())
}

func TestHabitLogStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, uniqueEmail("habits"), "a strong password", ""))

	store := client.NewStore(c, "/api/habits",
		func(h habits.Habit) string { return h.ID },
		func(h habits.Habit, id string) habits.Habit { h.ID = id; return h })

	require.NoError(t, store.Create(ctx, habits.Habit{Name: "Fajr on time"}))
	id := store.Entities()[0].ID

	today := time.Now().UTC().Format(habits.DateLayout)
	err := store.Apply(ctx, http.MethodPost, "/api/habits/"+id+"/logStatus",
		map[string]string{"date": today},
		func(hs []habits.Habit) []habits.Habit { return hs })
	require.NoError(t, err)

	require.NoError(t, store.Load(ctx))
	got := store.Entities()
	require.Len(t, got, 1)
	require.Len(t, got[0].History, 1)
	assert.Equal(t, habits.StatusCompleted, got[0].History[0].Status)
	assert.Equal(t, 1, got[0].Streak)
}

func TestSettingsRoundTripOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, uniqueEmail("settings"), "a strong password", ""))

	doc := `["all","tafsir","trash"]`
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		srv.URL+"/api/settings/noteFolders", strings.NewReader(doc))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.Token())
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/api/settings/noteFolders", nil)
	require.NoError(t, err)
	getReq.Header.Set("Authorization", "Bearer "+c.Token())
	getRes, err := http.DefaultClient.Do(getReq)
	require.NoError(t, err)
	defer getRes.Body.Close()
	require.Equal(t, http.StatusOK, getRes.StatusCode)
	var folders []string
	require.NoError(t, json.NewDecoder(getRes.Body).Decode(&folders))
	assert.Equal(t, []string{"all", "tafsir", "trash"}, folders)
}
