// Package reminders implements the reminders module: due-dated tasks with
// priorities, flags, recurrence, and list filters.
package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// Priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recurrence values.
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// List views.
const (
	ViewAll       = "all"
	ViewToday     = "today"
	ViewScheduled = "scheduled"
	ViewFlagged   = "flagged"
	ViewCompleted = "completed"
)

// Reminder is a single reminder.
type Reminder struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	DueDate    time.Time `json:"dueDate"`
	Priority   string    `json:"priority"`
	Category   string    `json:"category"`
	Completed  bool      `json:"completed"`
	Flagged    bool      `json:"flagged"`
	Notes      string    `json:"notes"`
	Recurrence string    `json:"recurrence"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateInput holds the writable fields for a new reminder.
type CreateInput struct {
	Title      string    `json:"title"`
	DueDate    time.Time `json:"dueDate"`
	Priority   string    `json:"priority"`
	Category   string    `json:"category"`
	Flagged    bool      `json:"flagged"`
	Notes      string    `json:"notes"`
	Recurrence string    `json:"recurrence"`
}

// UpdateInput holds partial updates. Nil fields are left unchanged.
type UpdateInput struct {
	Title      *string    `json:"title"`
	DueDate    *time.Time `json:"dueDate"`
	Priority   *string    `json:"priority"`
	Category   *string    `json:"category"`
	Completed  *bool      `json:"completed"`
	Flagged    *bool      `json:"flagged"`
	Notes      *string    `json:"notes"`
	Recurrence *string    `json:"recurrence"`
}

// Filter selects a derived view over the reminder list.
type Filter struct {
	View     string
	Search   string
	Category string
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements reminder operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a reminders service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// List returns reminders matching the filter, sorted high priority first
// and by ascending due date within a priority.
func (s *Service) List(ctx context.Context, udb *db.UserDB, f Filter) ([]Reminder, error) {
	rows, err := udb.DB().QueryContext(ctx, `
		SELECT id, title, due_date, priority, category, completed, flagged, notes, recurrence, created_at, updated_at
		FROM reminders`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var all []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	out := ApplyFilter(all, f, s.clock.Now())
	SortReminders(out)
	return out, nil
}

// Get returns a single reminder.
func (s *Service) Get(ctx context.Context, udb *db.UserDB, id string) (*Reminder, error) {
	row := udb.DB().QueryRowContext(ctx, `
		SELECT id, title, due_date, priority, category, completed, flagged, notes, recurrence, created_at, updated_at
		FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "reminder not found")
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new reminder. Priority defaults to medium, recurrence to
// none.
func (s *Service) Create(ctx context.Context, udb *db.UserDB, in CreateInput) (*Reminder, error) {
	if in.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "reminder title is required")
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !validPriority(in.Priority) {
		return nil, errs.New(errs.InvalidArgument, "priority must be low, medium, or high")
	}
	if in.Recurrence == "" {
		in.Recurrence = RecurrenceNone
	}
	if !validRecurrence(in.Recurrence) {
		return nil, errs.New(errs.InvalidArgument, "recurrence must be none, daily, weekly, or monthly")
	}
	if in.DueDate.IsZero() {
		in.DueDate = s.clock.Now()
	}

	now := s.clock.Now()
	r := Reminder{
		ID:         uuid.NewString(),
		Title:      in.Title,
		DueDate:    in.DueDate.UTC(),
		Priority:   in.Priority,
		Category:   in.Category,
		Flagged:    in.Flagged,
		Notes:      in.Notes,
		Recurrence: in.Recurrence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO reminders (id, title, due_date, priority, category, completed, flagged, notes, recurrence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.DueDate.Unix(), r.Priority, r.Category,
		boolToInt(r.Flagged), r.Notes, r.Recurrence, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return &r, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, udb *db.UserDB, id string, in UpdateInput) (*Reminder, error) {
	r, err := s.Get(ctx, udb, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.DueDate != nil {
		r.DueDate = in.DueDate.UTC()
	}
	if in.Priority != nil {
		if !validPriority(*in.Priority) {
			return nil, errs.New(errs.InvalidArgument, "priority must be low, medium, or high")
		}
		r.Priority = *in.Priority
	}
	if in.Category != nil {
		r.Category = *in.Category
	}
	if in.Completed != nil {
		r.Completed = *in.Completed
	}
	if in.Flagged != nil {
		r.Flagged = *in.Flagged
	}
	if in.Notes != nil {
		r.Notes = *in.Notes
	}
	if in.Recurrence != nil {
		if !validRecurrence(*in.Recurrence) {
			return nil, errs.New(errs.InvalidArgument, "recurrence must be none, daily, weekly, or monthly")
		}
		r.Recurrence = *in.Recurrence
	}
	r.UpdatedAt = s.clock.Now()
	return r, s.persist(ctx, udb, r)
}

// Complete marks a reminder done. A recurring reminder instead advances its
// due date by one period and stays open.
func (s *Service) Complete(ctx context.Context, udb *db.UserDB, id string) (*Reminder, error) {
	r, err := s.Get(ctx, udb, id)
	if err != nil {
		return nil, err
	}
	if r.Recurrence == RecurrenceNone {
		r.Completed = true
	} else {
		r.DueDate = NextOccurrence(r.DueDate, r.Recurrence)
		r.Completed = false
	}
	r.UpdatedAt = s.clock.Now()
	return r, s.persist(ctx, udb, r)
}

// Delete removes a reminder permanently.
func (s *Service) Delete(ctx context.Context, udb *db.UserDB, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "reminder not found")
	}
	return nil
}

// NextOccurrence advances a due date by one recurrence period.
func NextOccurrence(due time.Time, recurrence string) time.Time {
	switch recurrence {
	case RecurrenceDaily:
		return due.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		return due.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		return due.AddDate(0, 1, 0)
	default:
		return due
	}
}

// ApplyFilter is a pure function from (reminders, filter, now) to the
// derived view. Completed reminders only appear in the completed view.
func ApplyFilter(all []Reminder, f Filter, now time.Time) []Reminder {
	out := make([]Reminder, 0, len(all))
	for _, r := range all {
		switch f.View {
		case ViewCompleted:
			if !r.Completed {
				continue
			}
		case ViewToday:
			if r.Completed || !sameDay(r.DueDate, now) {
				continue
			}
		case ViewScheduled:
			if r.Completed || !r.DueDate.After(now) {
				continue
			}
		case ViewFlagged:
			if r.Completed || !r.Flagged {
				continue
			}
		default: // all
			if r.Completed {
				continue
			}
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.Search != "" && !matchesSearch(r, f.Search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortReminders orders by priority (high first) then ascending due date.
func SortReminders(rs []Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		pi, pj := priorityRank(rs[i].Priority), priorityRank(rs[j].Priority)
		if pi != pj {
			return pi < pj
		}
		if !rs[i].DueDate.Equal(rs[j].DueDate) {
			return rs[i].DueDate.Before(rs[j].DueDate)
		}
		return rs[i].ID < rs[j].ID
	})
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

func (s *Service) persist(ctx context.Context, udb *db.UserDB, r *Reminder) error {
	_, err := udb.DB().ExecContext(ctx, `
		UPDATE reminders SET title = ?, due_date = ?, priority = ?, category = ?,
			completed = ?, flagged = ?, notes = ?, recurrence = ?, updated_at = ?
		WHERE id = ?`,
		r.Title, r.DueDate.Unix(), r.Priority, r.Category,
		boolToInt(r.Completed), boolToInt(r.Flagged), r.Notes, r.Recurrence,
		r.UpdatedAt.Unix(), r.ID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return nil
}

func validPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func validRecurrence(r string) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func matchesSearch(r Reminder, search string) bool {
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Notes), q)
}

func scanReminder(r interface{ Scan(...any) error }) (Reminder, error) {
	var rem Reminder
	var due, createdAt, updatedAt int64
	var completed, flagged int
	err := r.Scan(&rem.ID, &rem.Title, &due, &rem.Priority, &rem.Category,
		&completed, &flagged, &rem.Notes, &rem.Recurrence, &createdAt, &updatedAt)
	if err != nil {
		return Reminder{}, err
	}
	rem.DueDate = time.Unix(due, 0).UTC()
	rem.Completed = completed != 0
	rem.Flagged = flagged != 0
	rem.CreatedAt = time.Unix(createdAt, 0).UTC()
	rem.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return rem, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
