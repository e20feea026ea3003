package calendar

import (
	"context"
	"testing"

	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrderAndWindow(t *testing.T) {
	svc := NewService()
	udb, err := testdb.NewUserDBInMemory("cal-order")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	for _, tc := range []struct{ title, date, start string }{
		{"Dentist", "2026-03-20", "14:00"},
		{"Jumu'ah", "2026-03-20", "13:00"},
		{"Standup", "2026-03-18", "09:30"},
		{"Eid prep", "2026-04-01", "10:00"},
	} {
		_, err := svc.Create(ctx, udb, CreateInput{Title: tc.title, Date: tc.date, StartTime: tc.start})
		require.NoError(t, err)
	}

	events, err := svc.List(ctx, udb, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, "Jumu'ah", events[1].Title, "same-day events order by start time")
	assert.Equal(t, "Dentist", events[2].Title)
}

func TestCreateUpdateDelete(t *testing.T) {
	svc := NewService()
	udb, err := testdb.NewUserDBInMemory("cal-crud")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	_, err = svc.Create(ctx, udb, CreateInput{Title: "No date"})
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	e, err := svc.Create(ctx, udb, CreateInput{Title: "Iftar", Date: "2026-03-20", StartTime: "18:30", EndTime: "20:00"})
	require.NoError(t, err)

	loc := "Masjid"
	got, err := svc.Update(ctx, udb, e.ID, UpdateInput{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Masjid", got.Location)
	assert.Equal(t, "18:30", got.StartTime, "untouched fields survive partial updates")

	require.NoError(t, svc.Delete(ctx, udb, e.ID))
	_, err = svc.Get(ctx, udb, e.ID)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}
