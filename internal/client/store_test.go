package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hayatos/hayatos/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newItemStore(c *Client) *Store[item] {
	return NewStore(c, "/api/items",
		func(i item) string { return i.ID },
		func(i item, id string) item { i.ID = id; return i })
}

func TestLoadReplacesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]item{{ID: "1", Title: "one"}, {ID: "2", Title: "two"}})
	}))
	defer srv.Close()

	s := newItemStore(New(srv.URL))
	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Entities(), 2)
}

func TestLoadFailureLeavesListUntouched(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		json.NewEncoder(w).Encode([]item{{ID: "1", Title: "one"}})
	}))
	defer srv.Close()

	s := newItemStore(New(srv.URL))
	require.NoError(t, s.Load(context.Background()))

	fail.Store(true)
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Entities(), 1, "failed load must not clear the list")
}

func TestCreateReconcilesTempID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in item
		json.NewDecoder(r.Body).Decode(&in)
		in.ID = "server-1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	s := newItemStore(New(srv.URL))
	require.NoError(t, s.Create(context.Background(), item{Title: "new"}))

	got := s.Entities()
	require.Len(t, got, 1)
	assert.Equal(t, "server-1", got[0].ID, "temp entity replaced by the server's")
	assert.False(t, IsTempID(got[0].ID))
}

func TestFailedCreateRemovesTempEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "title required"})
	}))
	defer srv.Close()

	s := newItemStore(New(srv.URL))
	err := s.Create(context.Background(), item{})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
	assert.Empty(t, s.Entities(), "failed create must remove the temp entity")
}

func TestFailedUpdateRestoresSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]item{{ID: "1", Title: "original"}})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "gone"})
		}
	}))
	defer srv.Close()

	s := newItemStore(New(srv.URL))
	require.NoError(t, s.Load(context.Background()))

	err := s.Update(context.Background(), "1", item{ID: "1", Title: "changed"})
	require.Error(t, err)
	got := s.Entities()
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Title, "failed update reverts the local change")

	err = s.Delete(context.Background(), "1")
	require.Error(t, err)
	assert.Len(t, s.Entities(), 1, "failed delete restores the entity")
}

func TestViewIsDerivedNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]item{{ID: "1", Title: "keep"}, {ID: "2", Title: "drop"}})
	}))
	defer srv.Close()

	s := newItemStore(New(srv.URL))
	require.NoError(t, s.Load(context.Background()))

	keep := func(i item) bool { return i.Title == "keep" }
	assert.Len(t, s.View(keep), 1)

	s.removeByID("1")
	assert.Empty(t, s.View(keep), "views recompute from current entities")
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "session expired"})
	}))
	defer srv.Close()

	var expired atomic.Int32
	c := New(srv.URL, WithSessionExpiredHandler(func() { expired.Add(1) }))
	c.SetToken("stale-token")

	s := newItemStore(c)
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Unauthenticated, errs.CodeOf(err))
	assert.Empty(t, c.Token(), "401 clears the bearer token")
	assert.EqualValues(t, 1, expired.Load())

	// Another 401 without a token does not re-fire the handler.
	_ = s.Load(context.Background())
	assert.EqualValues(t, 1, expired.Load())
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]item{})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok123")
	require.NoError(t, newItemStore(c).Load(context.Background()))
	assert.Equal(t, "Bearer tok123", gotAuth.Load())
}
