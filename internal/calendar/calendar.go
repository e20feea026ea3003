// Package calendar implements the calendar module: dated events with
// wall-clock start and end times.
package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hayatos/hayatos/internal/db"
	"github.com/hayatos/hayatos/internal/errs"
)

// DateLayout is the canonical date format for events.
const DateLayout = "2006-01-02"

// Event is a calendar event. StartTime and EndTime are HH:MM wall-clock
// strings; start < end is assumed but not enforced.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput holds the writable fields for a new event.
type CreateInput struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// UpdateInput holds partial updates. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service implements calendar operations on a per-user database.
type Service struct {
	clock Clock
}

// NewService creates a calendar service.
func NewService() *Service {
	return &Service{clock: realClock{}}
}

// SetClock replaces the clock. Intended for testing.
func (s *Service) SetClock(c Clock) { s.clock = c }

// List returns events ordered by date then start time. The optional
// [from, to] window filters on event date.
func (s *Service) List(ctx context.Context, udb *db.UserDB, from, to string) ([]Event, error) {
	query := `SELECT id, title, event_date, start_time, end_time, category, location, description, color, created_at, updated_at
		FROM calendar_events WHERE 1=1`
	var args []any
	if from != "" {
		query += ` AND event_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND event_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY event_date, start_time, id`

	rows, err := udb.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Get returns a single event.
func (s *Service) Get(ctx context.Context, udb *db.UserDB, id string) (*Event, error) {
	row := udb.DB().QueryRowContext(ctx, `
		SELECT id, title, event_date, start_time, end_time, category, location, description, color, created_at, updated_at
		FROM calendar_events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "event not found")
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event.
func (s *Service) Create(ctx context.Context, udb *db.UserDB, in CreateInput) (*Event, error) {
	if in.Title == "" {
		return nil, errs.New(errs.InvalidArgument, "event title is required")
	}
	if in.Date == "" {
		return nil, errs.New(errs.InvalidArgument, "event date is required")
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return nil, errs.New(errs.InvalidArgument, "date must be YYYY-MM-DD")
	}
	now := s.clock.Now()
	e := Event{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Category:    in.Category,
		Location:    in.Location,
		Description: in.Description,
		Color:       in.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := udb.DB().ExecContext(ctx, `
		INSERT INTO calendar_events (id, title, event_date, start_time, end_time, category, location, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Date, e.StartTime, e.EndTime, e.Category, e.Location,
		e.Description, e.Color, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &e, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, udb *db.UserDB, id string, in UpdateInput) (*Event, error) {
	e, err := s.Get(ctx, udb, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Date != nil {
		if _, err := time.Parse(DateLayout, *in.Date); err != nil {
			return nil, errs.New(errs.InvalidArgument, "date must be YYYY-MM-DD")
		}
		e.Date = *in.Date
	}
	if in.StartTime != nil {
		e.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		e.EndTime = *in.EndTime
	}
	if in.Category != nil {
		e.Category = *in.Category
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Color != nil {
		e.Color = *in.Color
	}
	e.UpdatedAt = s.clock.Now()

	_, err = udb.DB().ExecContext(ctx, `
		UPDATE calendar_events SET title = ?, event_date = ?, start_time = ?, end_time = ?,
			category = ?, location = ?, description = ?, color = ?, updated_at = ?
		WHERE id = ?`,
		e.Title, e.Date, e.StartTime, e.EndTime, e.Category, e.Location,
		e.Description, e.Color, e.UpdatedAt.Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, udb *db.UserDB, id string) error {
	res, err := udb.DB().ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "event not found")
	}
	return nil
}

func scanEvent(r interface{ Scan(...any) error }) (Event, error) {
	var e Event
	var createdAt, updatedAt int64
	err := r.Scan(&e.ID, &e.Title, &e.Date, &e.StartTime, &e.EndTime,
		&e.Category, &e.Location, &e.Description, &e.Color, &createdAt, &updatedAt)
	if err != nil {
		return Event{}, err
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	e.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return e, nil
}
