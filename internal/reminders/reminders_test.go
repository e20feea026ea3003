package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, name string) (*Service, *db.UserDB) {
	t.Helper()
	svc := NewService()
	svc.SetClock(fixedClock{t: testNow})
	udb, err := testdb.NewUserDBInMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { udb.DB().Close() })
	return svc, udb
}

func TestSortHighPriorityFirst(t *testing.T) {
	rs := []Reminder{
		{ID: "late-low", Priority: PriorityLow, DueDate: testNow.Add(time.Hour)},
		{ID: "early-med", Priority: PriorityMedium, DueDate: testNow.Add(-48 * time.Hour)},
		{ID: "late-high", Priority: PriorityHigh, DueDate: testNow.Add(72 * time.Hour)},
		{ID: "early-high", Priority: PriorityHigh, DueDate: testNow},
	}
	SortReminders(rs)

	// High beats earlier due dates; within a priority due date ascends.
	assert.Equal(t, "early-high", rs[0].ID)
	assert.Equal(t, "late-high", rs[1].ID)
	assert.Equal(t, "early-med", rs[2].ID)
	assert.Equal(t, "late-low", rs[3].ID)
}

func TestSortIsTotal(t *testing.T) {
	priorities := []string{PriorityLow, PriorityMedium, PriorityHigh}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		rs := make([]Reminder, n)
		for i := range rs {
			rs[i] = Reminder{
				ID:       rapid.StringMatching(`[a-z]{4}`).Draw(t, "id"),
				Priority: rapid.SampledFrom(priorities).Draw(t, "prio"),
				DueDate:  testNow.Add(time.Duration(rapid.IntRange(-1000, 1000).Draw(t, "due")) * time.Minute),
			}
		}
		SortReminders(rs)
		for i := 1; i < len(rs); i++ {
			pi, pj := priorityRank(rs[i-1].Priority), priorityRank(rs[i].Priority)
			assert.LessOrEqual(t, pi, pj)
			if pi == pj {
				assert.False(t, rs[i].DueDate.Before(rs[i-1].DueDate))
			}
		}
	})
}

func TestApplyFilterViews(t *testing.T) {
	all := []Reminder{
		{ID: "today", DueDate: testNow.Add(2 * time.Hour)},
		{ID: "future", DueDate: testNow.Add(72 * time.Hour)},
		{ID: "flagged", DueDate: testNow.Add(time.Hour), Flagged: true},
		{ID: "done", DueDate: testNow, Completed: true},
		{ID: "cat", DueDate: testNow, Category: "work"},
	}

	ids := func(rs []Reminder) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	assert.ElementsMatch(t, []string{"today", "future", "flagged", "cat"},
		ids(ApplyFilter(all, Filter{View: ViewAll}, testNow)))
	assert.ElementsMatch(t, []string{"today", "flagged", "cat"},
		ids(ApplyFilter(all, Filter{View: ViewToday}, testNow)))
	assert.ElementsMatch(t, []string{"today", "future", "flagged"},
		ids(ApplyFilter(all, Filter{View: ViewScheduled}, testNow)))
	assert.ElementsMatch(t, []string{"flagged"},
		ids(ApplyFilter(all, Filter{View: ViewFlagged}, testNow)))
	assert.ElementsMatch(t, []string{"done"},
		ids(ApplyFilter(all, Filter{View: ViewCompleted}, testNow)))
	assert.ElementsMatch(t, []string{"cat"},
		ids(ApplyFilter(all, Filter{View: ViewAll, Category: "work"}, testNow)))
}

func TestApplyFilterSearch(t *testing.T) {
	all := []Reminder{
		{ID: "a", Title: "Call the plumber"},
		{ID: "b", Title: "Groceries", Notes: "call ahead for the order"},
		{ID: "c", Title: "Review budget"},
	}
	got := ApplyFilter(all, Filter{View: ViewAll, Search: "CALL"}, testNow)
	require.Len(t, got, 2)
}

func TestCompleteRecurringAdvancesDueDate(t *testing.T) {
	svc, udb := newTestService(t, "rem-recur")
	ctx := context.Background()

	due := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	r, err := svc.Create(ctx, udb, CreateInput{
		Title: "Water plants", DueDate: due, Recurrence: RecurrenceWeekly,
	})
	require.NoError(t, err)

	got, err := svc.Complete(ctx, udb, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed, "recurring reminders stay open")
	assert.Equal(t, due.AddDate(0, 0, 7), got.DueDate)

	// One-shot reminders terminate.
	one, err := svc.Create(ctx, udb, CreateInput{Title: "Renew passport", DueDate: due})
	require.NoError(t, err)
	got, err = svc.Complete(ctx, udb, one.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestNextOccurrence(t *testing.T) {
	due := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, due.AddDate(0, 0, 1), NextOccurrence(due, RecurrenceDaily))
	assert.Equal(t, due.AddDate(0, 0, 7), NextOccurrence(due, RecurrenceWeekly))
	// Jan 31 + 1 month normalizes per time.AddDate.
	assert.Equal(t, due.AddDate(0, 1, 0), NextOccurrence(due, RecurrenceMonthly))
	assert.Equal(t, due, NextOccurrence(due, RecurrenceNone))
}

func TestCreateValidation(t *testing.T) {
	svc, udb := newTestService(t, "rem-validate")
	ctx := context.Background()

	_, err := svc.Create(ctx, udb, CreateInput{})
	assert.Error(t, err)
	_, err = svc.Create(ctx, udb, CreateInput{Title: "x", Priority: "urgent"})
	assert.Error(t, err)
	_, err = svc.Create(ctx, udb, CreateInput{Title: "x", Recurrence: "hourly"})
	assert.Error(t, err)
}
