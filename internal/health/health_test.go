package health

import (
	"context"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/errs"
	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestAddAndWindowedList(t *testing.T) {
	svc := NewService()
	svc.SetClock(fixedClock{t: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)})
	udb, err := testdb.NewUserDBInMemory("health-window")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	for _, tc := range []struct {
		metric string
		value  float64
		date   string
	}{
		{"weight", 82.5, "2026-03-01"},
		{"weight", 82.1, "2026-03-08"},
		{"weight", 81.8, "2026-03-15"},
		{"sleep", 7.5, "2026-03-08"},
	} {
		_, err := svc.Add(ctx, udb, CreateInput{Metric: tc.metric, Value: tc.value, Date: tc.date})
		require.NoError(t, err)
	}

	logs, err := svc.List(ctx, udb, "weight", "2026-03-05", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2026-03-08", logs[0].Date, "ascending date order")
	assert.Equal(t, "2026-03-15", logs[1].Date)

	all, err := svc.List(ctx, udb, "", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestAddIsAppendOnly(t *testing.T) {
	svc := NewService()
	svc.SetClock(fixedClock{t: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)})
	udb, err := testdb.NewUserDBInMemory("health-append")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	// Two readings of the same metric on the same date both survive.
	_, err = svc.Add(ctx, udb, CreateInput{Metric: "water", Value: 1.5, Date: "2026-03-15"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, udb, CreateInput{Metric: "water", Value: 2.0, Date: "2026-03-15"})
	require.NoError(t, err)

	logs, err := svc.List(ctx, udb, "water", "", "")
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAddValidation(t *testing.T) {
	svc := NewService()
	svc.SetClock(fixedClock{t: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)})
	udb, err := testdb.NewUserDBInMemory("health-validate")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	_, err = svc.Add(ctx, udb, CreateInput{Value: 1})
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	_, err = svc.Add(ctx, udb, CreateInput{Metric: "weight", Date: "15/03/2026"})
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	// Empty date defaults to today.
	l, err := svc.Add(ctx, udb, CreateInput{Metric: "weight", Value: 80})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", l.Date)
}
