// Package habits implements the habits module: daily/weekly habits with a
// per-date completion log, streaks, and a status cycle.
//
// The log is sparse. A (habit, date) pair has at most one row, and the
// "none" status is represented by the absence of a row.
package habits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// Log statuses for a (habit, date) pair.
const (
	StatusNone      = "none"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusMissed    = "missed"
)

// DateLayout is the canonical date format for habit logs.
const DateLayout = "2006-01-02"

// LogEntry is one day's status for a habit.
type LogEntry struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// Habit is one tracked habit with its sparse history.
type Habit struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Frequency string     `json:"frequency"`
	Color     string     `json:"color"`
	Icon      string     `json:"icon"`
	Streak    int        `json:"streak"`
	Archived  bool       `json:"archived"`
	History   []LogEntry `json:"history"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreateInput holds the writable fields for a new habit.
type CreateInput struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
}

// UpdateInput holds partial updates. Nil fields are left unchanged.
type UpdateInput struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	Frequency *string `json:"frequency"`
	Color     *string `json:"color"`
	Icon      *string `json:"icon"`
	Archived  *bool   `json:"archived"`
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements habit operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a habits service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// CycleStatus returns the status after one tap on a habit cell:
// none -> completed -> skipped -> missed -> none. Unknown inputs are
// treated as none.
func CycleStatus(current string) string {
	switch current {
	case StatusNone:
		return StatusCompleted
	case StatusCompleted:
		return StatusSkipped
	case StatusSkipped:
		return StatusMissed
	case StatusMissed:
		return StatusNone
	default:
		return StatusCompleted
	}
}

// List returns all habits with their histories, newest habit first.
func (s *Service) List(ctx context.Context, udb *db.UserDB) ([]Habit, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, name, category, frequency, color, icon, streak, status, created_at, updated_at
		FROM habits ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var out []Habit
	byID := map[string]int{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		h.History = []LogEntry{}
		byID[h.ID] = len(out)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	logRows, err := udb.DB().QueryContext(ctx,
		`SELECT habit_id, log_date, status FROM habit_logs ORDER BY log_date`)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer logRows.Close()
	for logRows.Next() {
		var habitID string
		var e LogEntry
		if err := logRows.Scan(&habitID, &e.Date, &e.Status); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		if i, ok := byID[habitID]; ok {
			out[i].History = append(out[i].History, e)
		}
	}
	if err := logRows.Err(); err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	return out, nil
}

// Get returns one habit with its history.
func (s *Service) Get(ctx context.Context, udb *db.UserDB, id string) (*Habit, error) {
	row := udb.DB().QueryRowContext(ctx, `
		SELECT id, name, category, frequency, color, icon, streak, status, created_at, updated_at
		FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "habit not found")
	}
	if err != nil {
		return nil, err
	}

	h.History = []LogEntry{}
	logRows, err := udb.DB().QueryContext(ctx,
		`SELECT log_date, status FROM habit_logs WHERE habit_id = ? ORDER BY log_date`, id)
	if err != nil {
		return nil, fmt.Errorf("habit logs: %w", err)
	}
	defer logRows.Close()
	for logRows.Next() {
		var e LogEntry
		if err := logRows.Scan(&e.Date, &e.Status); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		h.History = append(h.History, e)
	}
	if err := logRows.Err(); err != nil {
		return nil, fmt.Errorf("habit logs: %w", err)
	}
	return &h, nil
}

// Create inserts a new habit.
func (s *Service) Create(ctx context.Context, udb *db.UserDB, in CreateInput) (*Habit, error) {
	if in.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "habit name is required")
	}
	if in.Frequency == "" {
		in.Frequency = "daily"
	}
	if in.Frequency != "daily" && in.Frequency != "weekly" {
		return nil, errs.New(errs.InvalidArgument, "frequency must be daily or weekly")
	}
	now := s.clock.Now()
	h := Habit{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Category:  in.Category,
		Frequency: in.Frequency,
		Color:     in.Color,
		Icon:      in.Icon,
		History:   []LogEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO habits (id, name, category, frequency, color, icon, streak, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 'active', ?, ?)`,
		h.ID, h.Name, h.Category, h.Frequency, h.Color, h.Icon, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &h, nil
}

// Update applies a partial update to habit metadata.
func (s *Service) Update(ctx context.Context, udb *db.UserDB, id string, in UpdateInput) (*Habit, error) {
	h, err := s.Get(ctx, udb, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		h.Name = *in.Name
	}
	if in.Category != nil {
		h.Category = *in.Category
	}
	if in.Frequency != nil {
		if *in.Frequency != "daily" && *in.Frequency != "weekly" {
			return nil, errs.New(errs.InvalidArgument, "frequency must be daily or weekly")
		}
		h.Frequency = *in.Frequency
	}
	if in.Color != nil {
		h.Color = *in.Color
	}
	if in.Icon != nil {
		h.Icon = *in.Icon
	}
	if in.Archived != nil {
		h.Archived = *in.Archived
	}
	h.UpdatedAt = s.clock.Now()

	status := "active"
	if h.Archived {
		status = "archived"
	}
	_, err = udb.DB().ExecContext(ctx, `
		UPDATE habits SET name = ?, category = ?, frequency = ?, color = ?, icon = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		h.Name, h.Category, h.Frequency, h.Color, h.Icon, status, h.UpdatedAt.Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return h, nil
}

// Delete removes a habit and, via the FK cascade, its logs.
func (s *Service) Delete(ctx context.Context, udb *db.UserDB, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "habit not found")
	}
	return nil
}

// LogStatus advances the status of (habit, date) one step along the cycle
// and returns the habit with its updated history. Future dates are a no-op.
// When the date is today, moving into completed bumps the streak and moving
// out of completed drops it, matching the quick toggle.
func (s *Service) LogStatus(ctx context.Context, udb *db.UserDB, habitID, date string) (*Habit, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, errs.New(errs.InvalidArgument, "date must be YYYY-MM-DD")
	}
	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	if day.After(today) {
		return s.Get(ctx, udb, habitID)
	}

	h, err := s.Get(ctx, udb, habitID)
	if err != nil {
		return nil, err
	}

	current := statusOn(h, date)
	return s.writeStatus(ctx, udb, h, date, current, CycleStatus(current))
}

// ToggleToday flips today's entry between completed and none. This is the
// quick toggle on the habit list, as opposed to the full cycle on the
// monthly grid, and moves the streak the same way.
func (s *Service) ToggleToday(ctx context.Context, udb *db.UserDB, habitID string) (*Habit, error) {
	h, err := s.Get(ctx, udb, habitID)
	if err != nil {
		return nil, err
	}
	date := s.clock.Now().UTC().Format(DateLayout)
	current := statusOn(h, date)
	next := StatusCompleted
	if current == StatusCompleted {
		next = StatusNone
	}
	return s.writeStatus(ctx, udb, h, date, current, next)
}

func statusOn(h *Habit, date string) string {
	for _, e := range h.History {
		if e.Date == date {
			return e.Status
		}
	}
	return StatusNone
}

func (s *Service) writeStatus(ctx context.Context, udb *db.UserDB, h *Habit, date, current, next string) (*Habit, error) {
	habitID := h.ID
	today := s.clock.Now().UTC().Truncate(24 * time.Hour)

	tx, err := udb.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin log status: %w", err)
	}
	defer tx.Rollback()

	if next == StatusNone {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM habit_logs WHERE habit_id = ? AND log_date = ?`, habitID, date)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO habit_logs (habit_id, log_date, status) VALUES (?, ?, ?)
			ON CONFLICT(habit_id, log_date) DO UPDATE SET status = excluded.status`,
			habitID, date, next)
	}
	if err != nil {
		return nil, fmt.Errorf("write habit log: %w", err)
	}

	if date == today.Format(DateLayout) {
		streak := h.Streak
		if next == StatusCompleted {
			streak++
		} else if current == StatusCompleted {
			streak--
		}
		if streak < 0 {
			streak = 0
		}
		if streak != h.Streak {
			_, err = tx.ExecContext(ctx,
				`UPDATE habits SET streak = ?, updated_at = ? WHERE id = ?`,
				streak, s.clock.Now().Unix(), habitID)
			if err != nil {
				return nil, fmt.Errorf("update streak: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit log status: %w", err)
	}
	return s.Get(ctx, udb, habitID)
}

// MonthlyView returns the habit's statuses for one month keyed by date
// string. Dates with no log are absent.
func MonthlyView(h *Habit, year int, month time.Month) map[string]string {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	out := make(map[string]string)
	for _, e := range h.History {
		if len(e.Date) >= len(prefix) && e.Date[:len(prefix)] == prefix {
			out[e.Date] = e.Status
		}
	}
	return out
}

// SortHistory orders a history slice by date ascending. The store already
// returns logs ordered; this is for callers that assemble histories by hand.
func SortHistory(history []LogEntry) {
	sort.Slice(history, func(i, j int) bool { return history[i].Date < history[j].Date })
}

func scanHabit(r interface{ Scan(...any) error }) (Habit, error) {
	var h Habit
	var status string
	var createdAt, updatedAt int64
	err := r.Scan(&h.ID, &h.Name, &h.Category, &h.Frequency, &h.Color, &h.Icon,
		&h.Streak, &status, &createdAt, &updatedAt)
	if err != nil {
		return Habit{}, err
	}
	h.Archived = status == "archived"
	h.CreatedAt = time.Unix(createdAt, 0).UTC()
	h.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return h, nil
}
