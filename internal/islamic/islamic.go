// Package islamic implements the Islamic practice module: per-user prayer
// times, next-prayer computation, and daily practice logs.
package islamic

import (
	"context"
	"fmt"
	"time"

	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// DateLayout is the canonical date format for practice logs.
const DateLayout = "2006-01-02"

const minutesPerDay = 24 * 60

// PrayerTime is one named prayer and its wall-clock time.
type PrayerTime struct {
	Name string `json:"name"`
	Time string `json:"time"` // HH:MM
}

// NextPrayer is the result of the next-prayer computation.
type NextPrayer struct {
	Name         string `json:"name"`
	Time         string `json:"time"`
	MinutesUntil int    `json:"minutesUntil"`
}

// PracticeLog is one prayer's completion status on one date. At most one
// row per (date, prayer); absence means not logged.
type PracticeLog struct {
	Date   string `json:"date"`
	Prayer string `json:"prayer"`
	Status string `json:"status"`
}

// DefaultPrayerTimes seeds a new user's schedule until they set their own.
var DefaultPrayerTimes = []PrayerTime{
	{Name: "Fajr", Time: "05:30"},
	{Name: "Dhuhr", Time: "12:30"},
	{Name: "Asr", Time: "15:45"},
	{Name: "Maghrib", Time: "18:15"},
	{Name: "Isha", Time: "19:45"},
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements Islamic practice operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates an islamic service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ComputeNextPrayer finds the prayer with the smallest non-negative forward
// distance from now, in minutes since midnight. When every prayer has
// passed, the answer wraps to tomorrow's first prayer with the distance
// extended by a full day. Returns nil for an empty schedule or if no time
// parses.
func ComputeNextPrayer(times []PrayerTime, nowMinutes int) *NextPrayer {
	var best *NextPrayer
	for _, pt := range times {
		m, err := ParseClock(pt.Time)
		if err != nil {
			continue
		}
		diff := m - nowMinutes
		if diff < 0 {
			diff += minutesPerDay
		}
		if best == nil || diff < best.MinutesUntil {
			best = &NextPrayer{Name: pt.Name, Time: pt.Time, MinutesUntil: diff}
		}
	}
	return best
}

// GetPrayerTimes returns the user's schedule in its configured order,
// seeding the defaults on first read.
func (s *Service) GetPrayerTimes(ctx context.Context, udb *db.UserDB) ([]PrayerTime, error) {
	times, err := s.readPrayerTimes(ctx, udb)
	if err != nil {
		return nil, err
	}
	if len(times) > 0 {
		return times, nil
	}
	if err := s.SetPrayerTimes(ctx, udb, DefaultPrayerTimes); err != nil {
		return nil, err
	}
	return append([]PrayerTime(nil), DefaultPrayerTimes...), nil
}

func (s *Service) readPrayerTimes(ctx context.Context, udb *db.UserDB) ([]PrayerTime, error) {
	rows, err := udb.DB().QueryContext(ctx,
		`SELECT name, prayer_time FROM prayer_times ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("read prayer times: %w", err)
	}
	defer rows.Close()

	var out []PrayerTime
	for rows.Next() {
		var pt PrayerTime
		if err := rows.Scan(&pt.Name, &pt.Time); err != nil {
			return nil, fmt.Errorf("scan prayer time: %w", err)
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

// SetPrayerTimes replaces the whole schedule atomically.
func (s *Service) SetPrayerTimes(ctx context.Context, udb *db.UserDB, times []PrayerTime) error {
	for _, pt := range times {
		if pt.Name == "" {
			return errs.New(errs.InvalidArgument, "prayer name is required")
		}
		if _, err := ParseClock(pt.Time); err != nil {
			return errs.New(errs.InvalidArgument, "prayer time must be HH:MM")
		}
	}
	tx, err := udb.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set prayer times: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prayer_times`); err != nil {
		return fmt.Errorf("clear prayer times: %w", err)
	}
	for i, pt := range times {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO prayer_times (name, prayer_time, sort_order) VALUES (?, ?, ?)`,
			pt.Name, pt.Time, i)
		if err != nil {
			return fmt.Errorf("insert prayer time: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit prayer times: %w", err)
	}
	return nil
}

// Next returns the next prayer relative to the service clock.
func (s *Service) Next(ctx context.Context, udb *db.UserDB) (*NextPrayer, error) {
	times, err := s.GetPrayerTimes(ctx, udb)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	np := ComputeNextPrayer(times, now.Hour()*60+now.Minute())
	if np == nil {
		return nil, errs.New(errs.FailedPrecondition, "no prayer times configured")
	}
	return np, nil
}

// LogPractice records a prayer's status for a date, one row per
// (date, prayer). An empty status removes the row.
func (s *Service) LogPractice(ctx context.Context, udb *db.UserDB, log PracticeLog) error {
	if _, err := time.Parse(DateLayout, log.Date); err != nil {
		return errs.New(errs.InvalidArgument, "date must be YYYY-MM-DD")
	}
	if log.Prayer == "" {
		return errs.New(errs.InvalidArgument, "prayer is required")
	}
	if log.Status == "" {
		_, err := udb.DB().ExecContext(ctx,
			`DELETE FROM islamic_logs WHERE log_date = ? AND prayer = ?`, log.Date, log.Prayer)
		if err != nil {
			return fmt.Errorf("clear practice log: %w", err)
		}
		return nil
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO islamic_logs (log_date, prayer, status) VALUES (?, ?, ?)
		ON CONFLICT(log_date, prayer) DO UPDATE SET status = excluded.status`,
		log.Date, log.Prayer, log.Status)
	if err != nil {
		return fmt.Errorf("write practice log: %w", err)
	}
	return nil
}

// ListLogs returns practice logs in the [from, to] date window, date then
// prayer order.
func (s *Service) ListLogs(ctx context.Context, udb *db.UserDB, from, to string) ([]PracticeLog, error) {
	query := `SELECT log_date, prayer, status FROM islamic_logs WHERE 1=1`
	var args []any
	if from != "" {
		query += ` AND log_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND log_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY log_date, prayer`

	rows, err := udb.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list practice logs: %w", err)
	}
	defer rows.Close()

	out := []PracticeLog{}
	for rows.Next() {
		var l PracticeLog
		if err := rows.Scan(&l.Date, &l.Prayer, &l.Status); err != nil {
			return nil, fmt.Errorf("scan practice log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
