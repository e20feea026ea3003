package notes

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T, name string) (*Service, *db.UserDB, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	svc := NewService()
	svc.SetClock(clock)
	udb, err := testdb.NewUserDBInMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { udb.DB().Close() })
	return svc, udb, clock
}

func TestSortPinnedBeforeNewer(t *testing.T) {
	old := Note{ID: "a", Pinned: true, UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := Note{ID: "b", UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	ns := []Note{newer, old}
	SortNotes(ns)
	assert.Equal(t, "a", ns[0].ID, "a pinned old note sorts before an unpinned new one")
	assert.Equal(t, "b", ns[1].ID)
}

func TestListSortAndSearch(t *testing.T) {
	svc, udb, clock := newTestService(t, "notes-list")
	ctx := context.Background()

	first, err := svc.Create(ctx, udb, CreateInput{Title: "Grocery plan", Content: "eggs, dates"})
	require.NoError(t, err)
	clock.advance(time.Hour)
	_, err = svc.Create(ctx, udb, CreateInput{Title: "Trip ideas", Content: "Istanbul"})
	require.NoError(t, err)
	clock.advance(time.Hour)
	pinned := true
	_, err = svc.Update(ctx, udb, first.ID, UpdateInput{Pinned: &pinned})
	require.NoError(t, err)

	list, err := svc.List(ctx, udb, "", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "pinned first")

	list, err = svc.List(ctx, udb, "", "istanbul")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Trip ideas", list[0].Title)
}

func TestSoftDeleteToTrash(t *testing.T) {
	svc, udb, _ := newTestService(t, "notes-trash")
	ctx := context.Background()

	n, err := svc.Create(ctx, udb, CreateInput{Title: "Old note"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, udb, n.ID))

	list, err := svc.List(ctx, udb, "", "")
	require.NoError(t, err)
	assert.Empty(t, list, "trashed notes are hidden from the default view")

	trash, err := svc.List(ctx, udb, FolderTrash, "")
	require.NoError(t, err)
	require.Len(t, trash, 1)

	// Deleting from trash is permanent.
	require.NoError(t, svc.Delete(ctx, udb, n.ID))
	_, err = svc.Get(ctx, udb, n.ID)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestPurgeTrash(t *testing.T) {
	svc, udb, clock := newTestService(t, "notes-purge")
	ctx := context.Background()

	n, err := svc.Create(ctx, udb, CreateInput{Title: "Stale"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, udb, n.ID))

	clock.advance(40 * 24 * time.Hour)
	keep, err := svc.Create(ctx, udb, CreateInput{Title: "Fresh"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, udb, keep.ID))

	purged, err := svc.PurgeTrash(ctx, udb, 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	trash, err := svc.List(ctx, udb, FolderTrash, "")
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, keep.ID, trash[0].ID)
}

func TestRenderHTMLSanitizes(t *testing.T) {
	html := RenderHTML("# Heading\n\n<script>alert(1)</script>\n\n**bold**")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestExcerpt(t *testing.T) {
	e := Excerpt("# Title line\n\nSome **body** text", 200)
	assert.Equal(t, "Title line Some body text", e)

	long := strings.Repeat("word ", 100)
	e = Excerpt(long, 40)
	assert.LessOrEqual(t, len([]rune(e)), 42)
	assert.True(t, strings.HasSuffix(e, "…"))
}
