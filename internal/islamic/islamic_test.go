package islamic

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hayatos/hayatos/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestComputeNextPrayerWrapsToMorning(t *testing.T) {
	times := []PrayerTime{
		{Name: "Fajr", Time: "05:00"},
		{Name: "Dhuhr", Time: "12:00"},
		{Name: "Asr", Time: "15:30"},
		{Name: "Maghrib", Time: "18:00"},
		{Name: "Isha", Time: "19:30"},
	}
	// 20:00, after the last prayer of the day.
	np := ComputeNextPrayer(times, 20*60)
	require.NotNil(t, np)
	assert.Equal(t, "Fajr", np.Name)
	assert.Equal(t, "05:00", np.Time)
	assert.Equal(t, 9*60, np.MinutesUntil)
}

func TestComputeNextPrayerMidday(t *testing.T) {
	times := []PrayerTime{
		{Name: "Fajr", Time: "05:00"},
		{Name: "Dhuhr", Time: "12:00"},
		{Name: "Asr", Time: "15:30"},
	}
	np := ComputeNextPrayer(times, 13*60)
	require.NotNil(t, np)
	assert.Equal(t, "Asr", np.Name)
	assert.Equal(t, 150, np.MinutesUntil)

	// An exact hit counts as the next prayer, not the following one.
	np = ComputeNextPrayer(times, 12*60)
	require.NotNil(t, np)
	assert.Equal(t, "Dhuhr", np.Name)
	assert.Equal(t, 0, np.MinutesUntil)
}

func TestComputeNextPrayerTotality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 7).Draw(t, "n")
		times := make([]PrayerTime, n)
		for i := range times {
			m := rapid.IntRange(0, 24*60-1).Draw(t, fmt.Sprintf("m%d", i))
			times[i] = PrayerTime{
				Name: fmt.Sprintf("p%d", i),
				Time: fmt.Sprintf("%02d:%02d", m/60, m%60),
			}
		}
		now := rapid.IntRange(0, 24*60-1).Draw(t, "now")

		np := ComputeNextPrayer(times, now)
		require.NotNil(t, np, "a non-empty schedule always has a next prayer")
		assert.GreaterOrEqual(t, np.MinutesUntil, 0)
		assert.Less(t, np.MinutesUntil, 24*60)
	})
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("05:30")
	require.NoError(t, err)
	assert.Equal(t, 330, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("nope")
	assert.Error(t, err)
}

func TestPrayerTimesSeedAndReplace(t *testing.T) {
	svc := NewService()
	udb, err := testdb.NewUserDBInMemory("islamic-times")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	times, err := svc.GetPrayerTimes(ctx, udb)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrayerTimes, times, "first read seeds the defaults")

	custom := []PrayerTime{
		{Name: "Fajr", Time: "04:50"},
		{Name: "Isha", Time: "20:10"},
	}
	require.NoError(t, svc.SetPrayerTimes(ctx, udb, custom))

	times, err = svc.GetPrayerTimes(ctx, udb)
	require.NoError(t, err)
	assert.Equal(t, custom, times, "order is the configured order")

	err = svc.SetPrayerTimes(ctx, udb, []PrayerTime{{Name: "Fajr", Time: "bad"}})
	assert.Error(t, err)
}

func TestPracticeLogUpsertAndClear(t *testing.T) {
	svc := NewService()
	udb, err := testdb.NewUserDBInMemory("islamic-logs")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	log := PracticeLog{Date: "2026-03-15", Prayer: "Fajr", Status: "prayed"}
	require.NoError(t, svc.LogPractice(ctx, udb, log))

	log.Status = "missed"
	require.NoError(t, svc.LogPractice(ctx, udb, log))

	logs, err := svc.ListLogs(ctx, udb, "", "")
	require.NoError(t, err)
	require.Len(t, logs, 1, "one row per (date, prayer)")
	assert.Equal(t, "missed", logs[0].Status)

	log.Status = ""
	require.NoError(t, svc.LogPractice(ctx, udb, log))
	logs, err = svc.ListLogs(ctx, udb, "", "")
	require.NoError(t, err)
	assert.Empty(t, logs, "empty status removes the row")
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestNextUsesServiceClock(t *testing.T) {
	svc := NewService()
	svc.SetClock(fixedClock{t: time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)})
	udb, err := testdb.NewUserDBInMemory("islamic-next")
	require.NoError(t, err)
	defer udb.DB().Close()
	ctx := context.Background()

	require.NoError(t, svc.SetPrayerTimes(ctx, udb, []PrayerTime{
		{Name: "Fajr", Time: "05:00"},
		{Name: "Isha", Time: "19:30"},
	}))

	np, err := svc.Next(ctx, udb)
	require.NoError(t, err)
	assert.Equal(t, "Fajr", np.Name)
}
